package cluster

import (
	"strconv"

	"github.com/kubestellar/hub-console/pkg/models"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
)

// ResolveUsage returns allocatable as a whole percentage of capacity for one
// resource, e.g. "50". Missing values default to no usage of a unit
// capacity. A zero capacity yields "0".
func ResolveUsage(kind corev1.ResourceName, usage models.ResourceUsage) string {
	defaultUsage, defaultCapacity := resource.MustParse("0Mi"), resource.MustParse("1Mi")
	if kind == corev1.ResourceCPU {
		defaultUsage, defaultCapacity = resource.MustParse("0m"), resource.MustParse("1")
	}

	allocatable, ok := usage.Allocatable[kind]
	if !ok {
		allocatable = defaultUsage
	}
	capacity, ok := usage.Capacity[kind]
	if !ok {
		capacity = defaultCapacity
	}
	if capacity.IsZero() {
		return "0"
	}

	pct := allocatable.AsApproximateFloat64() / capacity.AsApproximateFloat64() * 100
	return strconv.Itoa(int(pct))
}

package addon

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/metrics"
	"github.com/kubestellar/hub-console/pkg/models"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
)

// Resolver reports the add-ons of a cluster from the add-on catalog and
// the cluster's add-on instances.
type Resolver struct {
	conn k8s.Connector
}

// NewResolver creates a resolver over conn.
func NewResolver(conn k8s.Connector) *Resolver {
	return &Resolver{conn: conn}
}

// GetClusterAddons returns one entry per add-on instance in namespace, with
// its resolved status, followed by a Disabled entry for every catalog add-on
// that has no instance. A forbidden catalog read leaves out the Disabled
// entries; any other failed read is an error.
func (r *Resolver) GetClusterAddons(ctx context.Context, namespace string) ([]models.Addon, error) {
	start := time.Now()

	var (
		catalog, instances       *k8s.Response
		catalogErr, instancesErr error
		wg                       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		catalog, catalogErr = r.conn.Get(ctx, k8s.ClusterManagementAddonsPath)
	}()
	go func() {
		defer wg.Done()
		instances, instancesErr = r.conn.Get(ctx, k8s.ManagedClusterAddonsPath(namespace))
	}()
	wg.Wait()

	addons, err := r.resolve(namespace, catalog, catalogErr, instances, instancesErr)
	metrics.ObserveFetch("clusteraddons", time.Since(start), err)
	return addons, err
}

func (r *Resolver) resolve(namespace string, catalog *k8s.Response, catalogErr error, instances *k8s.Response, instancesErr error) ([]models.Addon, error) {
	if catalogErr != nil {
		klog.Errorf("[Addons] list cluster management addons: %v", catalogErr)
		return nil, fmt.Errorf("failed to list cluster management addons: %w", catalogErr)
	}
	if instancesErr != nil {
		klog.Errorf("[Addons] list managed cluster addons in %s: %v", namespace, instancesErr)
		return nil, fmt.Errorf("failed to list managed cluster addons in %s: %w", namespace, instancesErr)
	}
	if catalog.HasError() && catalog.StatusCode() != http.StatusForbidden {
		return nil, k8s.NewAPIError(catalog, "ClusterManagementAddOn")
	}
	if instances.HasError() {
		return nil, k8s.NewAPIError(instances, "ManagedClusterAddOn")
	}

	raw, _ := instances.Items()
	enabled, err := k8s.DecodeItems[models.ManagedClusterAddOn](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode managed cluster addons: %w", err)
	}
	addons := make([]models.Addon, 0, len(enabled))
	names := make(map[string]bool, len(enabled))
	for _, a := range enabled {
		addons = append(addons, instanceAddon(a))
		names[a.Name] = true
	}

	raw, _ = catalog.Items()
	entries, err := k8s.DecodeItems[models.ClusterManagementAddOn](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cluster management addons: %w", err)
	}
	for _, cma := range entries {
		if !names[cma.Name] {
			addons = append(addons, disabledAddon(cma, namespace))
		}
	}
	return addons, nil
}

func instanceAddon(a models.ManagedClusterAddOn) models.Addon {
	out := models.Addon{
		Metadata: a.ObjectMeta,
		Status:   ResolveStatus(a.Status.Conditions),
	}
	if len(a.Status.RelatedObjects) > 0 {
		obj := a.Status.RelatedObjects[0]
		out.AddOnResource = models.AddonResource{Name: obj.Name, Group: obj.Group, Resource: obj.Resource}
	}
	out.AddOnResource.Description = a.Status.AddOnMeta.Description
	return out
}

// disabledAddon describes a catalog add-on with no instance. The resource
// and group come from the configuration CRD name, e.g.
// klusterletaddonconfigs.agent.open-cluster-management.io.
func disabledAddon(cma models.ClusterManagementAddOn, namespace string) models.Addon {
	resource, group, _ := strings.Cut(cma.Spec.AddOnConfiguration.CRDName, ".")
	return models.Addon{
		Metadata: metav1.ObjectMeta{Name: cma.Name, Namespace: namespace},
		Status:   models.AddonStatus{Type: models.AddonStatusDisabled},
		AddOnResource: models.AddonResource{
			Group:       group,
			Resource:    resource,
			Description: cma.Spec.AddOnMeta.Description,
		},
	}
}

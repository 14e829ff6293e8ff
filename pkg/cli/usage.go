package cli

import (
	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/kubestellar/hub-console/pkg/cluster"
	"github.com/kubestellar/hub-console/pkg/models"
)

// ClusterUsage is the allocatable share of capacity of one cluster, in percent
type ClusterUsage struct {
	Name   string `json:"name"`
	CPU    string `json:"cpu"`
	Memory string `json:"memory"`
	Pods   string `json:"pods"`
}

func newCmdUsage(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show allocatable CPU, memory and pods as a share of capacity per cluster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			rows, err := model.GetAllClusters(cmd.Context(), "")
			if err != nil {
				return err
			}
			usages := clusterUsages(rows)
			return o.render(usages, func() *table {
				t := newTable("Name", "CPU", "Memory", "Pods")
				for _, u := range usages {
					t.addRow(u.Name, u.CPU+"%", u.Memory+"%", u.Pods+"%")
				}
				return t
			})
		},
	}
}

func clusterUsages(rows []models.ClusterOverview) []ClusterUsage {
	usages := make([]ClusterUsage, 0, len(rows))
	for _, r := range rows {
		u := models.ResourceUsage{Allocatable: r.Allocatable, Capacity: r.Capacity}
		usages = append(usages, ClusterUsage{
			Name:   r.Metadata.Name,
			CPU:    cluster.ResolveUsage(corev1.ResourceCPU, u),
			Memory: cluster.ResolveUsage(corev1.ResourceMemory, u),
			Pods:   cluster.ResolveUsage(corev1.ResourcePods, u),
		})
	}
	return usages
}

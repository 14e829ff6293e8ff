package cluster

import (
	"context"
	"fmt"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"k8s.io/klog/v2"
)

// GetNodeList returns the nodes mirrored on the cluster's ManagedClusterInfo.
// A missing or unreadable info object yields no nodes.
func (m *Model) GetNodeList(ctx context.Context, name string) ([]models.ClusterNode, error) {
	resp, err := m.conn.Get(ctx, k8s.ManagedClusterInfoPath(name, name))
	if err != nil {
		klog.Errorf("[Cluster] node list of %s: %v", name, err)
		return nil, fmt.Errorf("failed to read cluster info %s: %w", name, err)
	}
	nodes := []models.ClusterNode{}
	if resp.HasError() {
		return nodes, nil
	}
	var info models.ManagedClusterInfo
	if err := resp.Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode cluster info %s: %w", name, err)
	}
	for _, n := range info.Status.NodeList {
		nodes = append(nodes, models.ClusterNode{NodeStatus: n, Cluster: name})
	}
	return nodes, nil
}

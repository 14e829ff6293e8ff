package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/metrics"
	"github.com/kubestellar/hub-console/pkg/models"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
)

// DetachCluster deletes the ManagedCluster of cluster. With destroy it also
// deletes the ClusterDeployment in namespace and the MachinePools that
// reference it. It returns the first failed response, or NoContent.
// Outcomes are logged through the logger carried by ctx.
func (m *Model) DetachCluster(ctx context.Context, namespace, cluster string, destroy bool) (*k8s.Response, error) {
	log := klog.FromContext(ctx).WithValues("cluster", cluster, "destroy", destroy)
	workflow := metrics.WorkflowDetach
	if destroy {
		workflow = metrics.WorkflowDestroy
	}
	resp, err := m.detachCluster(ctx, namespace, cluster, destroy)
	switch {
	case err != nil:
		log.Error(err, "Cluster detach aborted")
		metrics.RecordWorkflow(workflow, metrics.OutcomeError)
		return nil, err
	case resp.HasError():
		metrics.RecordWorkflow(workflow, metrics.OutcomeFailure)
		log.Info("Cluster detach failed", "code", resp.StatusCode(), "message", resp.Message())
	default:
		metrics.RecordWorkflow(workflow, metrics.OutcomeSuccess)
		log.Info("Cluster detached")
	}
	return resp, nil
}

func (m *Model) detachCluster(ctx context.Context, namespace, cluster string, destroy bool) (*k8s.Response, error) {
	detached, err := m.conn.Delete(ctx, k8s.ManagedClusterPath(cluster))
	if err != nil {
		klog.Errorf("[Detach] delete managed cluster %s: %v", cluster, err)
		return nil, fmt.Errorf("failed to delete managed cluster %s: %w", cluster, err)
	}
	if !destroy {
		if detached.HasError() {
			return detached, nil
		}
		return k8s.NoContent(), nil
	}

	pools, err := m.conn.Get(ctx, k8s.MachinePoolsPath(namespace))
	if err != nil {
		klog.Errorf("[Detach] list machine pools in %s: %v", namespace, err)
		return nil, fmt.Errorf("failed to list machine pools in %s: %w", namespace, err)
	}
	if pools.Kind() == "Status" {
		return pools, nil
	}
	raw, _ := pools.Items()
	list, err := k8s.DecodeItems[models.MachinePool](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode machine pools: %w", err)
	}

	targets := []string{k8s.ClusterDeploymentPath(namespace, cluster)}
	for _, pool := range list {
		if pool.Spec.ClusterDeploymentRef.Name == cluster {
			targets = append(targets, k8s.MachinePoolPath(namespace, pool.Name))
		}
	}

	resps := make([]*k8s.Response, len(targets))
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, p := range targets {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			resps[i], errs[i] = m.conn.Delete(ctx, p)
		}(i, p)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			klog.Errorf("[Detach] delete %s: %v", targets[i], err)
			return nil, fmt.Errorf("failed to delete %s: %w", targets[i], err)
		}
	}
	for _, resp := range resps {
		if resp.Kind() == "Status" && resp.StatusString() != metav1.StatusSuccess {
			return resp, nil
		}
	}
	return k8s.NoContent(), nil
}

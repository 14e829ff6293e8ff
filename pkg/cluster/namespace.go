package cluster

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/klog/v2"
)

// namespaceChecks selects the existence checks made on a namespace that
// already exists.
type namespaceChecks struct {
	managedCluster    bool
	clusterDeployment bool
}

// ensureNamespace creates the cluster namespace as a project, or verifies an
// existing one can be reused, then marks it as a cluster namespace. It
// returns the project response, or an error response the caller reports.
func (m *Model) ensureNamespace(ctx context.Context, namespace string, checks namespaceChecks) (*k8s.Response, error) {
	request := map[string]any{
		"apiVersion": "project.openshift.io/v1",
		"kind":       "ProjectRequest",
		"metadata":   map[string]any{"name": namespace},
	}
	project, err := m.conn.Post(ctx, k8s.ProjectRequestsPath, request)
	if err != nil {
		klog.Errorf("[Create] project request %s: %v", namespace, err)
		return nil, fmt.Errorf("failed to create namespace %s: %w", namespace, err)
	}

	existed := false
	if project.HasError() {
		if project.StatusCode() != http.StatusConflict {
			return project, nil
		}
		existed = true
		if project, err = m.checkExistingNamespace(ctx, namespace, checks); err != nil {
			return nil, err
		}
	}

	patch := map[string]any{
		"metadata": map[string]any{
			"labels": map[string]string{k8s.ClusterNamespaceLabel: namespace},
		},
	}
	label, err := m.conn.Patch(ctx, k8s.NamespacePath(namespace), types.MergePatchType, patch)
	if err != nil {
		klog.Errorf("[Create] label namespace %s: %v", namespace, err)
		return nil, fmt.Errorf("failed to label namespace %s: %w", namespace, err)
	}
	if label.HasError() {
		if !existed {
			// created but unmarked
			return label, nil
		}
		klog.Warningf("[Create] could not label existing namespace %s: %s", namespace, label.Message())
		return project, nil
	}

	project, err = m.conn.Get(ctx, k8s.ProjectPath(namespace))
	if err != nil {
		klog.Errorf("[Create] read project %s: %v", namespace, err)
		return nil, fmt.Errorf("failed to read namespace %s: %w", namespace, err)
	}
	return project, nil
}

// checkExistingNamespace rejects a namespace that is terminating or already
// holds a cluster. Not-found reads pass; other failed reads abort.
func (m *Model) checkExistingNamespace(ctx context.Context, namespace string, checks namespaceChecks) (*k8s.Response, error) {
	project, err := m.conn.Get(ctx, k8s.ProjectPath(namespace))
	if err != nil {
		klog.Errorf("[Create] read project %s: %v", namespace, err)
		return nil, fmt.Errorf("failed to read namespace %s: %w", namespace, err)
	}
	if project.HasError() {
		if project.StatusCode() != http.StatusNotFound {
			return nil, &NamespaceError{Namespace: namespace, Err: k8s.NewAPIError(project, "Project")}
		}
	} else {
		var p models.Project
		if err := project.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode project %s: %w", namespace, err)
		}
		if p.Status.Phase == corev1.NamespaceTerminating {
			return nil, &NamespaceError{
				Namespace: namespace,
				Err:       ErrNamespaceTerminating,
				msg:       fmt.Sprintf("Namespace %s is terminating. Wait until it is terminated or use a different namespace.", namespace),
			}
		}
	}

	if checks.managedCluster {
		mc, err := m.conn.Get(ctx, k8s.ManagedClusterPath(namespace))
		if err != nil {
			klog.Errorf("[Create] read managed cluster %s: %v", namespace, err)
			return nil, fmt.Errorf("failed to read managed cluster %s: %w", namespace, err)
		}
		switch {
		case !mc.HasError():
			return nil, &NamespaceError{
				Namespace: namespace,
				Err:       ErrClusterExists,
				msg:       fmt.Sprintf("A ManagedCluster of the name %q already exists.", namespace),
			}
		case mc.StatusCode() != http.StatusNotFound:
			return nil, &NamespaceError{Namespace: namespace, Err: k8s.NewAPIError(mc, "ManagedCluster")}
		}
	}

	if checks.clusterDeployment {
		cds, err := m.conn.Get(ctx, k8s.NamespacedClusterDeploymentsPath(namespace))
		if err != nil {
			klog.Errorf("[Create] list cluster deployments in %s: %v", namespace, err)
			return nil, fmt.Errorf("failed to list cluster deployments in %s: %w", namespace, err)
		}
		if items, ok := cds.Items(); ok && len(items) > 0 {
			return nil, &NamespaceError{
				Namespace: namespace,
				Err:       ErrDeploymentExists,
				msg:       fmt.Sprintf("Namespace %q already contains a ClusterDeployment resource", namespace),
			}
		}
		if cds.HasError() && cds.StatusCode() != http.StatusNotFound {
			return nil, &NamespaceError{Namespace: namespace, Err: k8s.NewAPIError(cds, "ClusterDeployment")}
		}
	}
	return project, nil
}

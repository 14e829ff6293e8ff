package cluster

import "errors"

var (
	// ErrNamespaceTerminating means the target namespace is being deleted.
	ErrNamespaceTerminating = errors.New("namespace is terminating")
	// ErrClusterExists means a ManagedCluster with the namespace's name exists.
	ErrClusterExists = errors.New("managed cluster already exists")
	// ErrDeploymentExists means the namespace already holds a ClusterDeployment.
	ErrDeploymentExists = errors.New("cluster deployment already exists")
)

// NamespaceError reports why an existing namespace cannot receive a cluster.
// It unwraps to one of the sentinels above or to a *k8s.APIError when a
// required read failed.
type NamespaceError struct {
	Namespace string
	Err       error
	msg       string
}

func (e *NamespaceError) Error() string {
	if e.msg != "" {
		return e.msg
	}
	return "namespace " + e.Namespace + ": " + e.Err.Error()
}

func (e *NamespaceError) Unwrap() error {
	return e.Err
}

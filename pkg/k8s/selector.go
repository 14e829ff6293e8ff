package k8s

import (
	"fmt"
	"net/url"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/selection"
)

// Labels written by hive and the cluster import controllers.
const (
	HiveDomain             = "hive.openshift.io"
	UninstallLabel         = HiveDomain + "/uninstall"
	InstallLabel           = HiveDomain + "/install"
	ClusterDeploymentLabel = HiveDomain + "/cluster-deployment-name"
	ClusterNamespaceLabel  = "cluster.open-cluster-management.io/managedCluster"
	CSRClusterLabel        = "open-cluster-management.io/cluster-name"
)

// Selector builds a label selector query. Invalid keys or values are
// reported by Query rather than silently dropped.
type Selector struct {
	reqs labels.Requirements
	err  error
}

// NewSelector returns an empty selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Equals adds a key=value requirement.
func (s *Selector) Equals(key, value string) *Selector {
	return s.add(key, selection.Equals, []string{value})
}

// Exists adds a requirement that key is present.
func (s *Selector) Exists(key string) *Selector {
	return s.add(key, selection.Exists, nil)
}

func (s *Selector) add(key string, op selection.Operator, values []string) *Selector {
	if s.err != nil {
		return s
	}
	req, err := labels.NewRequirement(key, op, values)
	if err != nil {
		s.err = fmt.Errorf("invalid label selector %q: %w", key, err)
		return s
	}
	s.reqs = append(s.reqs, *req)
	return s
}

// String renders the selector in the API server's syntax.
func (s *Selector) String() string {
	return labels.NewSelector().Add(s.reqs...).String()
}

// Query returns the selector as labelSelector query values.
func (s *Selector) Query() (url.Values, error) {
	if s.err != nil {
		return nil, s.err
	}
	return url.Values{"labelSelector": []string{s.String()}}, nil
}

// Path appends the selector query to p.
func (s *Selector) Path(p string) (string, error) {
	q, err := s.Query()
	if err != nil {
		return "", err
	}
	return WithQuery(p, q), nil
}

// AllUninstallJobs selects every hive uninstall job.
func AllUninstallJobs() *Selector {
	return NewSelector().Equals(UninstallLabel, "true")
}

// AllInstallJobs selects every hive install job.
func AllInstallJobs() *Selector {
	return NewSelector().Equals(InstallLabel, "true")
}

// UninstallJobs selects the uninstall jobs of one cluster.
func UninstallJobs(cluster string) *Selector {
	return AllUninstallJobs().Equals(ClusterDeploymentLabel, cluster)
}

// InstallJobs selects the install jobs of one cluster.
func InstallJobs(cluster string) *Selector {
	return AllInstallJobs().Equals(ClusterDeploymentLabel, cluster)
}

// AllClusterCSRs selects every CSR created for a cluster join.
func AllClusterCSRs() *Selector {
	return NewSelector().Exists(CSRClusterLabel)
}

// ClusterCSRs selects the CSRs of one cluster.
func ClusterCSRs(cluster string) *Selector {
	return NewSelector().Equals(CSRClusterLabel, cluster)
}

// ClusterNamespaces selects namespaces marked as managed cluster namespaces.
func ClusterNamespaces() *Selector {
	return NewSelector().Exists(ClusterNamespaceLabel)
}

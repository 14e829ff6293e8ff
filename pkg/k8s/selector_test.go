package k8s

import (
	"net/url"
	"testing"
)

func TestSelectorQueries(t *testing.T) {
	tests := []struct {
		name string
		sel  *Selector
		want string
	}{
		{"all uninstall", AllUninstallJobs(), "hive.openshift.io/uninstall=true"},
		{"all install", AllInstallJobs(), "hive.openshift.io/install=true"},
		{"cluster uninstall", UninstallJobs("c1"), "hive.openshift.io/cluster-deployment-name=c1,hive.openshift.io/uninstall=true"},
		{"cluster install", InstallJobs("c1"), "hive.openshift.io/cluster-deployment-name=c1,hive.openshift.io/install=true"},
		{"all csrs", AllClusterCSRs(), "open-cluster-management.io/cluster-name"},
		{"cluster csrs", ClusterCSRs("c1"), "open-cluster-management.io/cluster-name=c1"},
		{"cluster namespaces", ClusterNamespaces(), "cluster.open-cluster-management.io/managedCluster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.sel.Query()
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if got := q.Get("labelSelector"); got != tt.want {
				t.Errorf("labelSelector = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectorPath(t *testing.T) {
	p, err := ClusterCSRs("c1").Path(CertificateSigningRequests)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	u, err := url.Parse(p)
	if err != nil {
		t.Fatalf("invalid path %q: %v", p, err)
	}
	if u.Path != CertificateSigningRequests {
		t.Errorf("path = %q", u.Path)
	}
	if got := u.Query().Get("labelSelector"); got != "open-cluster-management.io/cluster-name=c1" {
		t.Errorf("labelSelector = %q", got)
	}
}

func TestSelectorInvalidValue(t *testing.T) {
	sel := ClusterCSRs("not a valid label value!")
	if _, err := sel.Query(); err == nil {
		t.Error("expected error for invalid label value")
	}
	if _, err := sel.Path(JobsPath); err == nil {
		t.Error("expected Path to surface the selector error")
	}
}

package cluster

import (
	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	batchv1 "k8s.io/api/batch/v1"
	certificatesv1beta1 "k8s.io/api/certificates/v1beta1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Index is a Bundle keyed by cluster name.
type Index struct {
	managedClusters    map[string]*models.ManagedCluster
	infos              map[string]*models.ManagedClusterInfo
	clusterDeployments map[string]*models.ClusterDeployment
	csrs               map[string][]certificatesv1beta1.CertificateSigningRequest
	uninstallJobs      map[string][]batchv1.Job
	installJobs        map[string][]batchv1.Job

	// ManagedCluster names first, then ClusterDeployment-only names, in list order
	names []string
}

// Resources is everything known about one cluster. Nil fields are absent.
type Resources struct {
	ManagedCluster     *models.ManagedCluster
	ManagedClusterInfo *models.ManagedClusterInfo
	ClusterDeployment  *models.ClusterDeployment
	CSRs               []certificatesv1beta1.CertificateSigningRequest
	UninstallJobs      []batchv1.Job
	InstallJobs        []batchv1.Job
}

// NewIndex indexes b. Named resources of another kind are skipped; grouped
// collections are keyed by their cluster label.
func NewIndex(b *Bundle) *Index {
	mcs, mcNames := byName(b.ManagedClusters, "ManagedCluster")
	cds, cdNames := byName(b.ClusterDeployments, "ClusterDeployment")
	infos, _ := byName(b.ManagedClusterInfos, "ManagedClusterInfo")

	idx := &Index{
		managedClusters:    mcs,
		infos:              infos,
		clusterDeployments: cds,
		csrs:               byLabel(b.CSRs, k8s.CSRClusterLabel),
		uninstallJobs:      byLabel(b.UninstallJobs, k8s.ClusterDeploymentLabel),
		installJobs:        byLabel(b.InstallJobs, k8s.ClusterDeploymentLabel),
	}

	seen := make(map[string]bool, len(mcNames)+len(cdNames))
	for _, name := range append(mcNames, cdNames...) {
		if !seen[name] {
			seen[name] = true
			idx.names = append(idx.names, name)
		}
	}
	return idx
}

// Names returns the known cluster names: the union of ManagedCluster names
// and ClusterDeployment names.
func (idx *Index) Names() []string {
	return idx.names
}

// Resources returns the resources joined for one cluster name.
func (idx *Index) Resources(name string) Resources {
	return Resources{
		ManagedCluster:     idx.managedClusters[name],
		ManagedClusterInfo: idx.infos[name],
		ClusterDeployment:  idx.clusterDeployments[name],
		CSRs:               idx.csrs[name],
		UninstallJobs:      idx.uninstallJobs[name],
		InstallJobs:        idx.installJobs[name],
	}
}

type namedObject[T any] interface {
	*T
	metav1.Object
	GetObjectKind() schema.ObjectKind
}

// byName keys items by metadata.name; a later item with the same name wins.
// Items without a name or whose kind is set to something other than kind
// are skipped.
func byName[T any, PT namedObject[T]](items []T, kind string) (map[string]PT, []string) {
	out := make(map[string]PT, len(items))
	var names []string
	for i := range items {
		obj := PT(&items[i])
		if k := obj.GetObjectKind().GroupVersionKind().Kind; k != "" && k != kind {
			continue
		}
		name := obj.GetName()
		if name == "" {
			continue
		}
		if _, ok := out[name]; !ok {
			names = append(names, name)
		}
		out[name] = obj
	}
	return out, names
}

// byLabel groups items by the value of label. Unlabelled items are dropped.
func byLabel[T any, PT interface {
	*T
	metav1.Object
}](items []T, label string) map[string][]T {
	out := make(map[string][]T)
	for i := range items {
		value, ok := PT(&items[i]).GetLabels()[label]
		if !ok {
			continue
		}
		out[value] = append(out[value], items[i])
	}
	return out
}

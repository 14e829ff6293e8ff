package k8s

import (
	"net/url"
	"path"
)

// Cluster-scoped collection paths on the hub.
const (
	ManagedClustersPath         = "/apis/cluster.open-cluster-management.io/v1/managedclusters"
	ManagedClusterInfosPath     = "/apis/internal.open-cluster-management.io/v1beta1/managedclusterinfos"
	ClusterDeploymentsPath      = "/apis/hive.openshift.io/v1/clusterdeployments"
	ClusterImageSetsPath        = "/apis/hive.openshift.io/v1/clusterimagesets"
	CertificateSigningRequests  = "/apis/certificates.k8s.io/v1beta1/certificatesigningrequests"
	JobsPath                    = "/apis/batch/v1/jobs"
	ClusterManagementAddonsPath = "/apis/addon.open-cluster-management.io/v1alpha1/clustermanagementaddons"
	ProjectRequestsPath         = "/apis/project.openshift.io/v1/projectrequests"
	ProjectsPath                = "/apis/project.openshift.io/v1/projects"
	NamespacesPath              = "/api/v1/namespaces"
)

// ManagedClusterPath is the path of one ManagedCluster.
func ManagedClusterPath(name string) string {
	return path.Join(ManagedClustersPath, name)
}

// NamespacedManagedClusterInfosPath lists ManagedClusterInfos in one namespace.
func NamespacedManagedClusterInfosPath(namespace string) string {
	return "/apis/internal.open-cluster-management.io/v1beta1/namespaces/" + namespace + "/managedclusterinfos"
}

// ManagedClusterInfoPath is the path of one ManagedClusterInfo.
func ManagedClusterInfoPath(namespace, name string) string {
	return path.Join(NamespacedManagedClusterInfosPath(namespace), name)
}

// NamespacedClusterDeploymentsPath lists ClusterDeployments in one namespace.
func NamespacedClusterDeploymentsPath(namespace string) string {
	return "/apis/hive.openshift.io/v1/namespaces/" + namespace + "/clusterdeployments"
}

// ClusterDeploymentPath is the path of one ClusterDeployment.
func ClusterDeploymentPath(namespace, name string) string {
	return path.Join(NamespacedClusterDeploymentsPath(namespace), name)
}

// MachinePoolsPath lists MachinePools in one namespace.
func MachinePoolsPath(namespace string) string {
	return "/apis/hive.openshift.io/v1/namespaces/" + namespace + "/machinepools"
}

// MachinePoolPath is the path of one MachinePool.
func MachinePoolPath(namespace, name string) string {
	return path.Join(MachinePoolsPath(namespace), name)
}

// NamespacedJobsPath lists Jobs in one namespace.
func NamespacedJobsPath(namespace string) string {
	return "/apis/batch/v1/namespaces/" + namespace + "/jobs"
}

// ManagedClusterAddonsPath lists ManagedClusterAddOns in one cluster namespace.
func ManagedClusterAddonsPath(namespace string) string {
	return "/apis/addon.open-cluster-management.io/v1alpha1/namespaces/" + namespace + "/managedclusteraddons"
}

// ProjectPath is the path of one project.
func ProjectPath(name string) string {
	return path.Join(ProjectsPath, name)
}

// NamespacePath is the path of one core namespace.
func NamespacePath(namespace string) string {
	return path.Join(NamespacesPath, namespace)
}

// SecretPath is the path of one secret.
func SecretPath(namespace, name string) string {
	return NamespacePath(namespace) + "/secrets/" + name
}

// ImportSecretPath is the path of the import secret generated for a cluster.
func ImportSecretPath(namespace, cluster string) string {
	return SecretPath(namespace, cluster+"-import")
}

// WithQuery appends encoded query values to p.
func WithQuery(p string, q url.Values) string {
	if len(q) == 0 {
		return p
	}
	return p + "?" + q.Encode()
}

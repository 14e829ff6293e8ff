package models

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ManagedCluster condition types
const (
	ManagedClusterConditionHubAccepted = "HubAcceptedManagedCluster"
	ManagedClusterConditionJoined      = "ManagedClusterJoined"
	ManagedClusterConditionAvailable   = "ManagedClusterConditionAvailable"
)

// ManagedCluster is the hub registration record of a joined cluster
type ManagedCluster struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ManagedClusterSpec   `json:"spec,omitempty"`
	Status ManagedClusterStatus `json:"status,omitempty"`
}

// ManagedClusterSpec holds the fields of the registration spec the console reads
type ManagedClusterSpec struct {
	HubAcceptsClient bool `json:"hubAcceptsClient,omitempty"`
}

// ManagedClusterStatus is the observed state reported by the registration agent
type ManagedClusterStatus struct {
	Conditions  []metav1.Condition  `json:"conditions,omitempty"`
	Capacity    corev1.ResourceList `json:"capacity,omitempty"`
	Allocatable corev1.ResourceList `json:"allocatable,omitempty"`
}

// ConditionTrue reports whether the condition exists with status exactly "True"
func (m *ManagedCluster) ConditionTrue(conditionType string) bool {
	return meta.IsStatusConditionTrue(m.Status.Conditions, conditionType)
}

// ManagedClusterInfo is the read-only status mirror of a joined cluster
type ManagedClusterInfo struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ClusterInfoSpec   `json:"spec,omitempty"`
	Status ClusterInfoStatus `json:"status,omitempty"`
}

// ClusterInfoSpec holds the endpoints of a managed cluster
type ClusterInfoSpec struct {
	MasterEndpoint string `json:"masterEndpoint,omitempty"`
}

// ClusterInfoStatus is the state collected from a managed cluster
type ClusterInfoStatus struct {
	ConsoleURL       string           `json:"consoleURL,omitempty"`
	Version          string           `json:"version,omitempty"`
	NodeList         []NodeStatus     `json:"nodeList,omitempty"`
	DistributionInfo DistributionInfo `json:"distributionInfo,omitempty"`
}

// NodeStatus describes one node of a managed cluster
type NodeStatus struct {
	Name       string              `json:"name,omitempty"`
	Labels     map[string]string   `json:"labels,omitempty"`
	Capacity   corev1.ResourceList `json:"capacity,omitempty"`
	Conditions []NodeCondition     `json:"conditions,omitempty"`
}

// NodeCondition is a node condition as mirrored on the hub
type NodeCondition struct {
	Type   corev1.NodeConditionType `json:"type,omitempty"`
	Status corev1.ConditionStatus   `json:"status,omitempty"`
}

// DistributionInfo carries distribution specific version data
type DistributionInfo struct {
	Type string               `json:"type,omitempty"`
	OCP  *OCPDistributionInfo `json:"ocp,omitempty"`
}

// OCPDistributionInfo is the upgrade state of an OpenShift cluster
type OCPDistributionInfo struct {
	Version          string   `json:"version,omitempty"`
	AvailableUpdates []string `json:"availableUpdates,omitempty"`
	DesiredVersion   string   `json:"desiredVersion,omitempty"`
	UpgradeFailed    bool     `json:"upgradeFailed,omitempty"`
}

// ClusterDeployment is the hive provisioning record of a cluster
type ClusterDeployment struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ClusterDeploymentSpec   `json:"spec,omitempty"`
	Status ClusterDeploymentStatus `json:"status,omitempty"`
}

// ClusterDeploymentSpec holds the provisioning fields the console reads
type ClusterDeploymentSpec struct {
	ClusterName     string           `json:"clusterName,omitempty"`
	BaseDomain      string           `json:"baseDomain,omitempty"`
	Installed       bool             `json:"installed"`
	ClusterMetadata *ClusterMetadata `json:"clusterMetadata,omitempty"`
	Provisioning    *Provisioning    `json:"provisioning,omitempty"`
}

// ClusterMetadata is written by hive once the cluster is installed
type ClusterMetadata struct {
	ClusterID                string                       `json:"clusterID,omitempty"`
	InfraID                  string                       `json:"infraID,omitempty"`
	AdminKubeconfigSecretRef corev1.LocalObjectReference  `json:"adminKubeconfigSecretRef"`
	AdminPasswordSecretRef   *corev1.LocalObjectReference `json:"adminPasswordSecretRef,omitempty"`
}

// Provisioning holds the install inputs of a ClusterDeployment
type Provisioning struct {
	InstallConfigSecretRef *corev1.LocalObjectReference `json:"installConfigSecretRef,omitempty"`
	ReleaseImage           string                       `json:"releaseImage,omitempty"`
}

// ClusterDeploymentStatus holds the endpoints hive reports
type ClusterDeploymentStatus struct {
	APIURL        string `json:"apiURL,omitempty"`
	WebConsoleURL string `json:"webConsoleURL,omitempty"`
}

// Secrets returns the names of the secrets referenced by the deployment, "" when unset
func (cd *ClusterDeployment) Secrets() DeploymentSecrets {
	var s DeploymentSecrets
	if cd == nil {
		return s
	}
	if md := cd.Spec.ClusterMetadata; md != nil {
		s.AdminKubeconfigSecret = md.AdminKubeconfigSecretRef.Name
		if md.AdminPasswordSecretRef != nil {
			s.AdminPasswordSecret = md.AdminPasswordSecretRef.Name
		}
	}
	if p := cd.Spec.Provisioning; p != nil && p.InstallConfigSecretRef != nil {
		s.InstallConfigSecret = p.InstallConfigSecretRef.Name
	}
	return s
}

// MachinePool is a pool of machines provisioned with a ClusterDeployment
type MachinePool struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec MachinePoolSpec `json:"spec,omitempty"`
}

// MachinePoolSpec links the pool to its deployment
type MachinePoolSpec struct {
	ClusterDeploymentRef corev1.LocalObjectReference `json:"clusterDeploymentRef"`
	Name                 string                      `json:"name,omitempty"`
	Replicas             *int64                      `json:"replicas,omitempty"`
}

// ClusterImageSet names a release image clusters can be provisioned from
type ClusterImageSet struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ClusterImageSetSpec `json:"spec,omitempty"`
}

// ClusterImageSetSpec holds the release image
type ClusterImageSetSpec struct {
	ReleaseImage string `json:"releaseImage,omitempty"`
}

// Project is the OpenShift project wrapping a namespace
type Project struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Status ProjectStatus `json:"status,omitempty"`
}

// ProjectStatus holds the namespace phase
type ProjectStatus struct {
	Phase corev1.NamespacePhase `json:"phase,omitempty"`
}

// ClusterManagementAddOn is a catalog entry of an installable add-on
type ClusterManagementAddOn struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec ClusterManagementAddOnSpec `json:"spec,omitempty"`
}

// ClusterManagementAddOnSpec describes the add-on and its configuration CRD
type ClusterManagementAddOnSpec struct {
	AddOnMeta          AddOnMeta         `json:"addOnMeta,omitempty"`
	AddOnConfiguration ConfigCoordinates `json:"addOnConfiguration,omitempty"`
}

// AddOnMeta is the display metadata of an add-on
type AddOnMeta struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

// ConfigCoordinates points at the CRD and CR configuring an add-on
type ConfigCoordinates struct {
	CRDName string `json:"crdName,omitempty"`
	CRName  string `json:"crName,omitempty"`
}

// ManagedClusterAddOn is an add-on instance enabled for one cluster
type ManagedClusterAddOn struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   ManagedClusterAddOnSpec   `json:"spec,omitempty"`
	Status ManagedClusterAddOnStatus `json:"status,omitempty"`
}

// ManagedClusterAddOnSpec holds the install namespace on the managed cluster
type ManagedClusterAddOnSpec struct {
	InstallNamespace string `json:"installNamespace,omitempty"`
}

// ManagedClusterAddOnStatus is the state reported by the add-on agent
type ManagedClusterAddOnStatus struct {
	Conditions     []metav1.Condition `json:"conditions,omitempty"`
	RelatedObjects []ObjectReference  `json:"relatedObjects,omitempty"`
	AddOnMeta      AddOnMeta          `json:"addOnMeta,omitempty"`
}

// ObjectReference points at a resource related to an add-on
type ObjectReference struct {
	Group    string `json:"group"`
	Resource string `json:"resource"`
	Name     string `json:"name"`
}

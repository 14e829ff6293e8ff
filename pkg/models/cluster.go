package models

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClusterStatus is the lifecycle status derived for a cluster
type ClusterStatus string

const (
	ClusterStatusOK              ClusterStatus = "ok"
	ClusterStatusOffline         ClusterStatus = "offline"
	ClusterStatusNotAccepted     ClusterStatus = "notaccepted"
	ClusterStatusPendingImport   ClusterStatus = "pendingimport"
	ClusterStatusNeedsApproval   ClusterStatus = "needsapproval"
	ClusterStatusPending         ClusterStatus = "pending"
	ClusterStatusDetaching       ClusterStatus = "detaching"
	ClusterStatusDestroying      ClusterStatus = "destroying"
	ClusterStatusCreating        ClusterStatus = "creating"
	ClusterStatusProvisionFailed ClusterStatus = "provisionfailed"
	ClusterStatusDetached        ClusterStatus = "detached"
)

// BaseCluster is the identity and endpoints shared by every cluster view
type BaseCluster struct {
	Metadata      metav1.ObjectMeta   `json:"metadata"`
	ClusterIP     string              `json:"clusterip,omitempty"`
	ConsoleURL    string              `json:"consoleURL,omitempty"`
	ServerAddress string              `json:"serverAddress,omitempty"`
	Status        ClusterStatus       `json:"status"`
	RawCluster    *ManagedCluster     `json:"rawCluster,omitempty"`
	RawStatus     *ManagedClusterInfo `json:"rawStatus,omitempty"`
}

// Name returns the cluster name
func (b *BaseCluster) Name() string {
	return b.Metadata.Name
}

// ClusterView is the detailed per-cluster view
type ClusterView struct {
	BaseCluster

	Nodes      *int   `json:"nodes"`
	K8sVersion string `json:"k8sVersion"`
	IsHive     bool   `json:"isHive"`
	IsManaged  bool   `json:"isManaged"`

	// Set only when the cluster reports OCP distribution info
	AvailableVersions   []string `json:"availableVersions,omitempty"`
	DesiredVersion      string   `json:"desiredVersion,omitempty"`
	DistributionVersion string   `json:"distributionVersion,omitempty"`
	UpgradeFailed       *bool    `json:"upgradeFailed,omitempty"`

	*DeploymentSecrets
}

// DeploymentSecrets names the secrets hive created for a cluster
type DeploymentSecrets struct {
	AdminKubeconfigSecret string `json:"adminKubeconfigSecret"`
	AdminPasswordSecret   string `json:"adminPasswordSecret"`
	InstallConfigSecret   string `json:"installConfigSecret"`
}

// ClusterOverview is the lightweight fleet summary row
type ClusterOverview struct {
	BaseCluster

	Capacity    corev1.ResourceList `json:"capacity,omitempty"`
	Allocatable corev1.ResourceList `json:"allocatable,omitempty"`
}

// ResourceUsage is the input of a utilization computation
type ResourceUsage struct {
	Allocatable corev1.ResourceList `json:"allocatable,omitempty"`
	Capacity    corev1.ResourceList `json:"capacity,omitempty"`
}

// ClusterNode is a node of a managed cluster stamped with the cluster name
type ClusterNode struct {
	NodeStatus
	Cluster string `json:"cluster"`
}

// ImageSet is a provisionable release image
type ImageSet struct {
	Name           string `json:"name"`
	ReleaseImage   string `json:"releaseImage"`
	Channel        string `json:"channel"`
	Visible        string `json:"visible"`
	PlatformAws    string `json:"platformAws"`
	PlatformGcp    string `json:"platformGcp"`
	PlatformAzure  string `json:"platformAzure"`
	PlatformBmc    string `json:"platformBmc"`
	PlatformVmware string `json:"platformVmware"`
}

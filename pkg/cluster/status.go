package cluster

import (
	"github.com/kubestellar/hub-console/pkg/models"
	batchv1 "k8s.io/api/batch/v1"
	certificatesv1beta1 "k8s.io/api/certificates/v1beta1"
)

// DeriveStatus computes the lifecycle status of one cluster. The
// registration side is used when a ManagedCluster exists; the provisioning
// side (deployment plus install/uninstall jobs) overrides it while the
// cluster is detaching or not joined, unless provisioning reports detached.
// A cluster known through neither resource is pending.
func DeriveStatus(mc *models.ManagedCluster, csrs []certificatesv1beta1.CertificateSigningRequest,
	cd *models.ClusterDeployment, uninstall, install []batchv1.Job) models.ClusterStatus {

	var deployment models.ClusterStatus
	if cd != nil {
		deployment = DeploymentStatus(cd, uninstall, install)
	}

	if mc == nil {
		if deployment == "" {
			return models.ClusterStatusPending
		}
		return deployment
	}

	joined := mc.ConditionTrue(models.ManagedClusterConditionJoined)

	var status models.ClusterStatus
	switch {
	case mc.DeletionTimestamp != nil:
		status = models.ClusterStatusDetaching
	case !mc.ConditionTrue(models.ManagedClusterConditionHubAccepted):
		status = models.ClusterStatusNotAccepted
	case !joined:
		status = models.ClusterStatusPendingImport
		if len(csrs) > 0 {
			if len(latest(csrs).Status.Certificate) == 0 {
				status = models.ClusterStatusNeedsApproval
			} else {
				status = models.ClusterStatusPending
			}
		}
	case mc.ConditionTrue(models.ManagedClusterConditionAvailable):
		status = models.ClusterStatusOK
	default:
		status = models.ClusterStatusOffline
	}

	if (status == models.ClusterStatusDetaching || !joined) &&
		deployment != "" && deployment != models.ClusterStatusDetached {
		return deployment
	}
	return status
}

// DeploymentStatus computes the provisioning side status from the latest
// uninstall and install jobs and the deployment's installed flag.
func DeploymentStatus(cd *models.ClusterDeployment, uninstall, install []batchv1.Job) models.ClusterStatus {
	switch {
	case jobActive(uninstall):
		return models.ClusterStatusDestroying
	case jobActive(install):
		return models.ClusterStatusCreating
	case jobFailed(install) || jobFailed(uninstall):
		return models.ClusterStatusProvisionFailed
	case cd != nil && cd.Spec.Installed:
		return models.ClusterStatusDetached
	}
	return models.ClusterStatusPending
}

func jobActive(jobs []batchv1.Job) bool {
	job := latest(jobs)
	return job != nil && job.Status.Active > 0
}

func jobFailed(jobs []batchv1.Job) bool {
	job := latest(jobs)
	return job != nil && job.Status.Failed > 0
}

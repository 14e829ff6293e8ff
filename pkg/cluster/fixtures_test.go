package cluster

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"github.com/kubestellar/hub-console/pkg/test"
	batchv1 "k8s.io/api/batch/v1"
	certificatesv1beta1 "k8s.io/api/certificates/v1beta1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) metav1.Time {
	return metav1.NewTime(epoch.Add(time.Duration(minutes) * time.Minute))
}

func cond(conditionType string, status metav1.ConditionStatus) metav1.Condition {
	return metav1.Condition{Type: conditionType, Status: status, LastTransitionTime: at(0)}
}

func managedCluster(name string, conditions ...metav1.Condition) models.ManagedCluster {
	return models.ManagedCluster{
		TypeMeta:   metav1.TypeMeta{APIVersion: "cluster.open-cluster-management.io/v1", Kind: "ManagedCluster"},
		ObjectMeta: metav1.ObjectMeta{Name: name, CreationTimestamp: at(0)},
		Status:     models.ManagedClusterStatus{Conditions: conditions},
	}
}

func readyCluster(name string) models.ManagedCluster {
	return managedCluster(name,
		cond(models.ManagedClusterConditionHubAccepted, metav1.ConditionTrue),
		cond(models.ManagedClusterConditionJoined, metav1.ConditionTrue),
		cond(models.ManagedClusterConditionAvailable, metav1.ConditionTrue),
	)
}

func acceptedCluster(name string) models.ManagedCluster {
	return managedCluster(name, cond(models.ManagedClusterConditionHubAccepted, metav1.ConditionTrue))
}

func clusterInfo(name string) models.ManagedClusterInfo {
	return models.ManagedClusterInfo{
		TypeMeta:   metav1.TypeMeta{APIVersion: "internal.open-cluster-management.io/v1beta1", Kind: "ManagedClusterInfo"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: name, Labels: map[string]string{"cloud": "Amazon"}},
		Spec:       models.ClusterInfoSpec{MasterEndpoint: "https://api." + name + ".example.com:6443"},
		Status: models.ClusterInfoStatus{
			ConsoleURL: "https://console." + name + ".example.com",
			Version:    "v1.29.4",
			NodeList:   []models.NodeStatus{{Name: name + "-master-0"}, {Name: name + "-worker-0"}},
		},
	}
}

func clusterDeployment(name string, installed bool) models.ClusterDeployment {
	return models.ClusterDeployment{
		TypeMeta:   metav1.TypeMeta{APIVersion: "hive.openshift.io/v1", Kind: "ClusterDeployment"},
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: name, CreationTimestamp: at(0)},
		Spec:       models.ClusterDeploymentSpec{ClusterName: name, Installed: installed},
		Status:     models.ClusterDeploymentStatus{APIURL: "https://api." + name + ".hive.example.com:6443"},
	}
}

func job(name, cluster, label string, created int, active, failed int32) batchv1.Job {
	return batchv1.Job{
		TypeMeta: metav1.TypeMeta{APIVersion: "batch/v1", Kind: "Job"},
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         cluster,
			CreationTimestamp: at(created),
			Labels:            map[string]string{label: "true", k8s.ClusterDeploymentLabel: cluster},
		},
		Status: batchv1.JobStatus{Active: active, Failed: failed},
	}
}

func installJob(name, cluster string, created int, active, failed int32) batchv1.Job {
	return job(name, cluster, k8s.InstallLabel, created, active, failed)
}

func uninstallJob(name, cluster string, created int, active, failed int32) batchv1.Job {
	return job(name, cluster, k8s.UninstallLabel, created, active, failed)
}

func csr(name, cluster string, created int, certificate []byte) certificatesv1beta1.CertificateSigningRequest {
	return certificatesv1beta1.CertificateSigningRequest{
		TypeMeta: metav1.TypeMeta{APIVersion: "certificates.k8s.io/v1beta1", Kind: "CertificateSigningRequest"},
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			CreationTimestamp: at(created),
			Labels:            map[string]string{k8s.CSRClusterLabel: cluster},
		},
		Status: certificatesv1beta1.CertificateSigningRequestStatus{Certificate: certificate},
	}
}

func manifest(apiVersion, kind, namespace, name string) *unstructured.Unstructured {
	u := &unstructured.Unstructured{}
	u.SetAPIVersion(apiVersion)
	u.SetKind(kind)
	u.SetName(name)
	if namespace != "" {
		u.SetNamespace(namespace)
	}
	return u
}

func klusterletAddonConfigsPath(namespace string) string {
	return "/apis/agent.open-cluster-management.io/v1/namespaces/" + namespace + "/klusterletaddonconfigs"
}

func secretsPath(namespace string) string {
	return k8s.NamespacePath(namespace) + "/secrets"
}

// testResolver maps the kinds used by the create tests to their collections.
var testResolver = k8s.EndpointResolverFunc(func(_ context.Context, apiVersion, kind, namespace string) (string, error) {
	if apiVersion == "bogus.example.com/v1" {
		return "", fmt.Errorf("%w: %s", k8s.ErrUnknownAPIVersion, apiVersion)
	}
	switch kind {
	case "ManagedCluster":
		return k8s.ManagedClustersPath, nil
	case "ClusterDeployment":
		return k8s.NamespacedClusterDeploymentsPath(namespace), nil
	case "MachinePool":
		return k8s.MachinePoolsPath(namespace), nil
	case "KlusterletAddonConfig":
		return klusterletAddonConfigsPath(namespace), nil
	case "Secret":
		return secretsPath(namespace), nil
	}
	return "", fmt.Errorf("%w: %s", k8s.ErrUnknownKind, kind)
})

func project(name, phase string) map[string]any {
	return map[string]any{
		"apiVersion": "project.openshift.io/v1",
		"kind":       "Project",
		"metadata":   map[string]any{"name": name},
		"status":     map[string]any{"phase": phase},
	}
}

// newHub returns a fake hub whose project requests create a namespace and
// a project, and fail with a conflict when the project exists.
func newHub() *test.FakeConnector {
	f := test.NewFakeConnector()
	f.AddCollection(k8s.NamespacesPath).AddCollection(k8s.ProjectsPath)
	f.On(http.MethodPost, k8s.ProjectRequestsPath, func(body any) (*k8s.Response, error) {
		md := body.(map[string]any)["metadata"].(map[string]any)
		name := md["name"].(string)
		if _, ok := f.Object(k8s.ProjectsPath, name); ok {
			return k8s.StatusResponse(http.StatusConflict, metav1.StatusReasonAlreadyExists,
				fmt.Sprintf("project.project.openshift.io %q already exists", name)), nil
		}
		f.AddObject(k8s.NamespacesPath, map[string]any{
			"apiVersion": "v1",
			"kind":       "Namespace",
			"metadata":   map[string]any{"name": name},
		})
		p := project(name, "Active")
		f.AddObject(k8s.ProjectsPath, p)
		return k8s.NewResponse(http.StatusCreated, p)
	})
	return f
}

func importSecret(namespace string) map[string]any {
	return map[string]any{
		"apiVersion": "v1",
		"kind":       "Secret",
		"metadata":   map[string]any{"name": namespace + "-import", "namespace": namespace},
		"data":       map[string]any{"import.yaml": "a2luZDogTGlzdA=="},
	}
}

package cluster

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"github.com/kubestellar/hub-console/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func importManifests(name string) []*unstructured.Unstructured {
	mc := manifest("cluster.open-cluster-management.io/v1", "ManagedCluster", "", name)
	mc.SetLabels(map[string]string{"cloud": "auto-detect"})
	_ = unstructured.SetNestedField(mc.Object, true, "spec", "hubAcceptsClient")

	kac := manifest("agent.open-cluster-management.io/v1", "KlusterletAddonConfig", name, name)
	_ = unstructured.SetNestedField(kac.Object, name, "spec", "clusterNamespace")

	return []*unstructured.Unstructured{
		manifest("v1", "Namespace", "", name),
		mc,
		kac,
	}
}

func hiveManifests(name string) []*unstructured.Unstructured {
	cd := manifest("hive.openshift.io/v1", "ClusterDeployment", name, name)
	_ = unstructured.SetNestedField(cd.Object, "example.com", "spec", "baseDomain")
	return []*unstructured.Unstructured{
		manifest("v1", "Namespace", "", name),
		cd,
		manifest("v1", "Secret", name, name+"-install-config"),
		manifest("hive.openshift.io/v1", "MachinePool", name, name+"-worker"),
		manifest("cluster.open-cluster-management.io/v1", "ManagedCluster", "", name),
	}
}

func newCreateModel(f *test.FakeConnector) *Model {
	return NewModel(f, WithEndpointResolver(testResolver), WithImportPolling(time.Millisecond, 0))
}

func refs(kinds ...string) []string { return kinds }

func kindsOf(rr []models.ResourceRef) []string {
	out := make([]string, 0, len(rr))
	for _, r := range rr {
		out = append(out, r.Kind)
	}
	return out
}

func TestCreateClusterImport(t *testing.T) {
	f := newHub().AddObject(secretsPath("c1"), importSecret("c1"))

	result, err := newCreateModel(f).CreateCluster(context.Background(), importManifests("c1"))
	require.NoError(t, err)

	assert.True(t, result.Succeeded(), "errors: %v", result.Errors)
	assert.NotEmpty(t, result.OperationID)
	assert.ElementsMatch(t, refs("ManagedCluster", "KlusterletAddonConfig"), kindsOf(result.Created))
	assert.Empty(t, result.Updated)
	require.NotNil(t, result.ImportSecret)
	assert.Equal(t, "c1-import", result.ImportSecret.Name)
	assert.Contains(t, result.ImportSecret.Data, "import.yaml")

	ns, ok := f.Object(k8s.NamespacesPath, "c1")
	require.True(t, ok)
	labels := ns["metadata"].(map[string]any)["labels"].(map[string]any)
	assert.Equal(t, "c1", labels[k8s.ClusterNamespaceLabel])

	patches := f.Calls(http.MethodPatch)
	require.Len(t, patches, 1)
	assert.Equal(t, "application/merge-patch+json", string(patches[0].PatchType))

	_, ok = f.Object(k8s.ManagedClustersPath, "c1")
	assert.True(t, ok)
	_, ok = f.Object(klusterletAddonConfigsPath("c1"), "c1")
	assert.True(t, ok)
}

func TestCreateClusterIsIdempotent(t *testing.T) {
	f := newHub().AddObject(secretsPath("c1"), importSecret("c1"))
	m := newCreateModel(f)

	first, err := m.CreateCluster(context.Background(), importManifests("c1"))
	require.NoError(t, err)
	require.True(t, first.Succeeded())

	second, err := m.CreateCluster(context.Background(), importManifests("c1"))
	require.NoError(t, err)

	assert.True(t, second.Succeeded(), "errors: %v", second.Errors)
	assert.Empty(t, second.Created)
	assert.ElementsMatch(t, refs("ManagedCluster", "KlusterletAddonConfig"), kindsOf(second.Updated))
	assert.NotEqual(t, first.OperationID, second.OperationID)
	assert.NotNil(t, second.ImportSecret)
	assert.Len(t, f.Calls(http.MethodPut), 2)
}

func TestCreateClusterDeploymentLast(t *testing.T) {
	f := newHub()

	result, err := newCreateModel(f).CreateCluster(context.Background(), hiveManifests("c1"))
	require.NoError(t, err)
	require.True(t, result.Succeeded(), "errors: %v", result.Errors)

	kinds := kindsOf(result.Created)
	require.Len(t, kinds, 4)
	assert.Equal(t, "ClusterDeployment", kinds[3])
	assert.ElementsMatch(t, refs("Secret", "MachinePool", "ManagedCluster"), kinds[:3])
	assert.Nil(t, result.ImportSecret)

	posts := f.Calls(http.MethodPost)
	assert.Equal(t, k8s.ProjectRequestsPath, posts[0].Path)
	assert.Equal(t, k8s.NamespacedClusterDeploymentsPath("c1"), posts[len(posts)-1].Path)

	// no import secret polling for provisioned clusters
	assert.Zero(t, f.CallCount(http.MethodGet, k8s.ImportSecretPath("c1", "c1")))
}

func TestCreateClusterNamespaceHasDeployment(t *testing.T) {
	f := newHub()
	f.AddObject(k8s.ProjectsPath, project("c1", "Active"))
	f.AddObject(k8s.NamespacedClusterDeploymentsPath("c1"), clusterDeployment("c1", true))

	result, err := newCreateModel(f).CreateCluster(context.Background(), hiveManifests("c1"))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Namespace "c1" already contains a ClusterDeployment resource`, result.Errors[0].Message)
	assert.Len(t, f.Calls(http.MethodPost), 1, "only the project request is sent")
	assert.Empty(t, f.Calls(http.MethodPatch))
}

func TestCreateClusterNamespaceTerminating(t *testing.T) {
	f := newHub()
	f.AddObject(k8s.ProjectsPath, project("c1", "Terminating"))

	result, err := newCreateModel(f).CreateCluster(context.Background(), importManifests("c1"))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Namespace c1 is terminating. Wait until it is terminated or use a different namespace.",
		result.Errors[0].Message)
	assert.Empty(t, result.Created)
}

func TestCreateClusterManagedClusterExists(t *testing.T) {
	f := newHub()
	f.AddObject(k8s.ProjectsPath, project("c1", "Active"))
	f.AddObject(k8s.ManagedClustersPath, readyCluster("c1"))

	// no ManagedCluster in the manifests, so an existing one is a clash
	manifests := hiveManifests("c1")[:3]
	result, err := newCreateModel(f).CreateCluster(context.Background(), manifests)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, `A ManagedCluster of the name "c1" already exists.`, result.Errors[0].Message)
}

func TestCreateClusterValidation(t *testing.T) {
	tests := []struct {
		name      string
		manifests []*unstructured.Unstructured
		want      []string
	}{
		{
			name:      "only a namespace",
			manifests: []*unstructured.Unstructured{manifest("v1", "Namespace", "", "c1")},
			want:      []string{"Cannot find any endpoints"},
		},
		{
			name: "unknown api version and kind",
			manifests: []*unstructured.Unstructured{
				manifest("v1", "Namespace", "", "c1"),
				manifest("bogus.example.com/v1", "Widget", "c1", "w"),
				manifest("example.com/v1", "Gadget", "c1", "g"),
			},
			want: []string{"Cannot find resource types: bogus.example.com/v1", "Cannot find endpoints: Gadget"},
		},
		{
			name:      "no namespace",
			manifests: []*unstructured.Unstructured{manifest("v1", "Secret", "", "s")},
			want:      []string{"No namespace specified"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHub()
			result, err := newCreateModel(f).CreateCluster(context.Background(), tt.manifests)
			require.NoError(t, err)

			var got []string
			for _, e := range result.Errors {
				got = append(got, e.Message)
			}
			assert.Equal(t, tt.want, got)
			assert.Empty(t, f.Calls(""), "nothing is sent before validation passes")
		})
	}
}

func TestCreateClusterWriteFailure(t *testing.T) {
	f := newHub()
	f.Respond(http.MethodPost, secretsPath("c1"),
		k8s.StatusResponse(http.StatusForbidden, metav1.StatusReasonForbidden, "secrets is forbidden"))
	f.Fail(http.MethodPost, k8s.MachinePoolsPath("c1"), errors.New("connection reset"))

	result, err := newCreateModel(f).CreateCluster(context.Background(), hiveManifests("c1"))
	require.NoError(t, err)

	assert.False(t, result.Succeeded())
	assert.Len(t, result.Errors, 2)
	assert.ElementsMatch(t, refs("ManagedCluster"), kindsOf(result.Created))
	assert.Zero(t, f.CallCount(http.MethodPost, k8s.NamespacedClusterDeploymentsPath("c1")))
}

func TestCreateClusterImportSecretMissing(t *testing.T) {
	f := newHub()

	result, err := newCreateModel(f).CreateCluster(context.Background(), importManifests("c1"))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Message, "c1-import")
	assert.Nil(t, result.ImportSecret)
	assert.Len(t, result.Created, 2)
}

func TestCreateClusterTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	f := test.NewFakeConnector().Fail(http.MethodPost, k8s.ProjectRequestsPath, boom)

	_, err := newCreateModel(f).CreateCluster(context.Background(), importManifests("c1"))
	assert.ErrorIs(t, err, boom)
}

func TestSplitNamespace(t *testing.T) {
	kac := manifest("agent.open-cluster-management.io/v1", "KlusterletAddonConfig", "", "x")
	_ = unstructured.SetNestedField(kac.Object, "from-spec", "spec", "clusterNamespace")

	ns, resources := splitNamespace([]*unstructured.Unstructured{
		manifest("v1", "Namespace", "", "first"),
		kac,
		manifest("v1", "Secret", "", "s"),
		nil,
	})
	assert.Equal(t, "from-spec", ns)
	assert.Len(t, resources, 2)
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kubestellar/hub-console/pkg/addon"
	"github.com/kubestellar/hub-console/pkg/cluster"
	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"github.com/kubestellar/hub-console/pkg/test"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

type testEnv struct {
	App  *fiber.App
	Conn *test.FakeConnector
	Hub  *Hub
}

// setupTestEnv serves the cluster and add-on routes from a real model over
// an in-memory hub with every listed collection registered and empty.
func setupTestEnv(t *testing.T) *testEnv {
	conn := test.NewFakeConnector()
	for _, collection := range []string{
		k8s.ManagedClustersPath,
		k8s.ManagedClusterInfosPath,
		k8s.ClusterDeploymentsPath,
		k8s.CertificateSigningRequests,
		k8s.JobsPath,
		k8s.ClusterImageSetsPath,
		k8s.ClusterManagementAddonsPath,
	} {
		conn.AddCollection(collection)
	}

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Close)

	app := newApp()
	registerRoutes(app, cluster.NewModel(conn), addon.NewResolver(conn), hub)

	return &testEnv{App: app, Conn: conn, Hub: hub}
}

func newApp() *fiber.App {
	return fiber.New()
}

func registerRoutes(app *fiber.App, model ClusterModel, addons AddonSource, hub *Hub) {
	clusters := NewClusterHandlers(model, hub)
	app.Get("/api/clusters", clusters.ListClusters)
	app.Post("/api/clusters", clusters.CreateCluster)
	app.Get("/api/clusters/:name", clusters.GetCluster)
	app.Get("/api/clusters/:name/nodes", clusters.GetNodes)
	app.Delete("/api/clusters/:namespace/:name", clusters.DetachCluster)
	app.Get("/api/overview/clusters", clusters.ListOverview)
	app.Get("/api/clusterimagesets", clusters.ListImageSets)
	app.Get("/api/clusters/:namespace/addons", NewAddonHandlers(addons).ListAddons)
}

// do runs one request against the app and returns the status and body.
func (env *testEnv) do(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := env.App.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func readyCluster(name string) models.ManagedCluster {
	now := metav1.NewTime(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	return models.ManagedCluster{
		TypeMeta:   metav1.TypeMeta{APIVersion: "cluster.open-cluster-management.io/v1", Kind: "ManagedCluster"},
		ObjectMeta: metav1.ObjectMeta{Name: name, CreationTimestamp: now},
		Status: models.ManagedClusterStatus{Conditions: []metav1.Condition{
			{Type: models.ManagedClusterConditionHubAccepted, Status: metav1.ConditionTrue, LastTransitionTime: now},
			{Type: models.ManagedClusterConditionJoined, Status: metav1.ConditionTrue, LastTransitionTime: now},
			{Type: models.ManagedClusterConditionAvailable, Status: metav1.ConditionTrue, LastTransitionTime: now},
		}},
	}
}

var (
	_ ClusterModel = (*cluster.Model)(nil)
	_ AddonSource  = (*addon.Resolver)(nil)
)

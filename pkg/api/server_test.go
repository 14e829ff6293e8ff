package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kubestellar/hub-console/pkg/config"
	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *test.FakeConnector) {
	t.Helper()
	conn := test.NewFakeConnector()
	for _, collection := range []string{
		k8s.ManagedClustersPath,
		k8s.ManagedClusterInfosPath,
		k8s.ClusterDeploymentsPath,
		k8s.CertificateSigningRequests,
		k8s.JobsPath,
	} {
		conn.AddCollection(collection)
	}
	resolver := k8s.EndpointResolverFunc(func(context.Context, string, string, string) (string, error) {
		return "", k8s.ErrUnknownKind
	})

	cfg := config.Default()
	s := newServer(cfg, conn, resolver)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s, conn
}

func get(t *testing.T, s *Server, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := s.app.Test(req, int((5 * time.Second).Milliseconds()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := get(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t)

	// populate the fetch histogram
	resp, _ := get(t, s, httptest.NewRequest(http.MethodGet, "/api/clusters", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "hub_console_fetch_duration_seconds")
}

func TestServer_ClusterRoutes(t *testing.T) {
	s, conn := newTestServer(t)

	resp, body := get(t, s, httptest.NewRequest(http.MethodGet, "/api/overview/clusters", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)
	assert.NotZero(t, conn.CallCount(http.MethodGet, k8s.ManagedClustersPath))
}

func TestServer_CreateUnknownKind(t *testing.T) {
	s, conn := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/clusters", strings.NewReader(
		`[{"apiVersion":"example.com/v1","kind":"Widget","metadata":{"name":"c1","namespace":"c1"}}]`))
	req.Header.Set("Content-Type", "application/json")
	resp, body := get(t, s, req)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "Cannot find endpoints: Widget")
	assert.Empty(t, conn.Calls(http.MethodPost))
}

func TestServer_WebSocketRequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := get(t, s, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Upgrade Required"}`, body)
}

func TestServer_UnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)

	resp, body := get(t, s, httptest.NewRequest(http.MethodGet, "/api/nope/a/b/c", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"error"`)
}

func TestServer_CORS(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", s.config.FrontendURL)
	resp, _ := get(t, s, req)
	assert.Equal(t, s.config.FrontendURL, resp.Header.Get("Access-Control-Allow-Origin"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "KUBECONFIG", "KUBE_CONTEXT", "FRONTEND_URL",
		"CLUSTER_NAMESPACES", "IMPORT_POLL_INTERVAL", "IMPORT_POLL_ATTEMPTS"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: 9090
kubeconfig: /etc/hub/kubeconfig
context: hub-admin
cluster_namespaces: [prod, dev]
import_poll_interval: 500ms
import_poll_attempts: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/etc/hub/kubeconfig", cfg.Kubeconfig)
	assert.Equal(t, "hub-admin", cfg.Context)
	assert.Equal(t, []string{"prod", "dev"}, cfg.ClusterNamespaces)
	assert.Equal(t, 500*time.Millisecond, cfg.ImportPollInterval)
	assert.Equal(t, 3, cfg.ImportPollAttempts)
	assert.Equal(t, DefaultFrontendURL, cfg.FrontendURL)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "port: 9090\ncontext: from-file\n")
	t.Setenv("PORT", "7070")
	t.Setenv("KUBE_CONTEXT", "from-env")
	t.Setenv("CLUSTER_NAMESPACES", " a, b ,,c")
	t.Setenv("IMPORT_POLL_INTERVAL", "1s")
	t.Setenv("IMPORT_POLL_ATTEMPTS", "0")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "from-env", cfg.Context)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.ClusterNamespaces)
	assert.Equal(t, time.Second, cfg.ImportPollInterval)
	assert.Equal(t, 0, cfg.ImportPollAttempts)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad yaml", file: "port: [1"},
		{name: "bad port env", env: map[string]string{"PORT": "http"}},
		{name: "port out of range", file: "port: 70000"},
		{name: "bad interval", env: map[string]string{"IMPORT_POLL_INTERVAL": "soon"}},
		{name: "negative attempts", env: map[string]string{"IMPORT_POLL_ATTEMPTS": "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.file))
			assert.Error(t, err)
		})
	}
}

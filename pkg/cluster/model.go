package cluster

import (
	"time"

	"github.com/kubestellar/hub-console/pkg/k8s"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultPollRetries  = 5
)

// Model aggregates cluster lifecycle state from the hub and runs the
// create and detach workflows. Every call is a live read; nothing is cached
// between calls.
type Model struct {
	conn         k8s.Connector
	resolver     k8s.EndpointResolver
	namespaces   []string
	pollInterval time.Duration
	pollRetries  int
}

// Option configures a Model.
type Option func(*Model)

// WithClusterNamespaces sets the namespaces queried when a cluster-scoped
// list is not allowed. Without it the namespaces labelled as cluster
// namespaces are looked up on demand.
func WithClusterNamespaces(namespaces ...string) Option {
	return func(m *Model) {
		m.namespaces = append([]string(nil), namespaces...)
	}
}

// WithEndpointResolver sets the kind to endpoint lookup used by CreateCluster.
func WithEndpointResolver(r k8s.EndpointResolver) Option {
	return func(m *Model) {
		m.resolver = r
	}
}

// WithImportPolling sets the import secret poll delay and retry cap.
func WithImportPolling(interval time.Duration, retries int) Option {
	return func(m *Model) {
		if interval > 0 {
			m.pollInterval = interval
		}
		if retries >= 0 {
			m.pollRetries = retries
		}
	}
}

// NewModel creates a cluster model over conn.
func NewModel(conn k8s.Connector, opts ...Option) *Model {
	m := &Model{
		conn:         conn,
		pollInterval: defaultPollInterval,
		pollRetries:  defaultPollRetries,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

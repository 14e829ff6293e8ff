package k8s

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/discovery"
)

var (
	// ErrUnknownAPIVersion means the server does not serve the group/version.
	ErrUnknownAPIVersion = errors.New("unknown api version")
	// ErrUnknownKind means the group/version is served but has no resource for the kind.
	ErrUnknownKind = errors.New("unknown kind")
)

// EndpointResolver maps a manifest's apiVersion/kind to the collection path
// it is created under.
type EndpointResolver interface {
	ResourceEndpoint(ctx context.Context, apiVersion, kind, namespace string) (string, error)
}

// EndpointResolverFunc adapts a function to EndpointResolver.
type EndpointResolverFunc func(ctx context.Context, apiVersion, kind, namespace string) (string, error)

// ResourceEndpoint calls f.
func (f EndpointResolverFunc) ResourceEndpoint(ctx context.Context, apiVersion, kind, namespace string) (string, error) {
	return f(ctx, apiVersion, kind, namespace)
}

// DiscoveryResolver resolves endpoints with the server's discovery API.
// Resource lists are cached per group/version for the resolver's lifetime.
type DiscoveryResolver struct {
	client discovery.DiscoveryInterface

	mu    sync.Mutex
	cache map[string]*metav1.APIResourceList
}

// NewDiscoveryResolver creates a resolver over a discovery client.
func NewDiscoveryResolver(client discovery.DiscoveryInterface) *DiscoveryResolver {
	return &DiscoveryResolver{
		client: client,
		cache:  make(map[string]*metav1.APIResourceList),
	}
}

// ResourceEndpoint returns the collection path for kind in apiVersion.
// Namespaced kinds get a namespaced path when namespace is set.
func (r *DiscoveryResolver) ResourceEndpoint(_ context.Context, apiVersion, kind, namespace string) (string, error) {
	gv, err := schema.ParseGroupVersion(apiVersion)
	if err != nil || apiVersion == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownAPIVersion, apiVersion)
	}

	list, err := r.resources(apiVersion)
	if err != nil {
		return "", err
	}

	for _, res := range list.APIResources {
		// skip subresources such as clusterdeployments/status
		if res.Kind != kind || strings.Contains(res.Name, "/") {
			continue
		}
		prefix := "/apis/" + gv.String()
		if gv.Group == "" {
			prefix = "/api/" + gv.Version
		}
		if res.Namespaced && namespace != "" {
			return prefix + "/namespaces/" + namespace + "/" + res.Name, nil
		}
		return prefix + "/" + res.Name, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func (r *DiscoveryResolver) resources(apiVersion string) (*metav1.APIResourceList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if list, ok := r.cache[apiVersion]; ok {
		return list, nil
	}
	list, err := r.client.ServerResourcesForGroupVersion(apiVersion)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAPIVersion, apiVersion)
		}
		return nil, fmt.Errorf("failed to discover %s: %w", apiVersion, err)
	}
	r.cache[apiVersion] = list
	return list, nil
}

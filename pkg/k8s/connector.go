package k8s

import (
	"context"
	"encoding/json"
	"sync"

	"k8s.io/apimachinery/pkg/types"
	"k8s.io/klog/v2"
)

// PathBuilder renders a request path for one namespace.
type PathBuilder func(namespace string) string

// Connector is the transport capability used by the cluster and addon
// models. Upstream API errors come back as a *Response with HasError() true;
// the returned error is reserved for transport failures.
type Connector interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string, body any) (*Response, error)
	Put(ctx context.Context, path string, body any) (*Response, error)
	Patch(ctx context.Context, path string, patchType types.PatchType, body any) (*Response, error)
	Delete(ctx context.Context, path string) (*Response, error)
	// GetResources fans build out across namespaces and merges the returned items.
	GetResources(ctx context.Context, build PathBuilder, namespaces []string) ([]json.RawMessage, error)
}

// Getter is the read half of Connector.
type Getter interface {
	Get(ctx context.Context, path string) (*Response, error)
}

// ListAcrossNamespaces issues one GET per namespace concurrently and merges
// the results. List bodies contribute their items; a successful single-object
// body contributes itself; error responses contribute nothing. The first
// transport error fails the whole call.
func ListAcrossNamespaces(ctx context.Context, c Getter, build PathBuilder, namespaces []string) ([]json.RawMessage, error) {
	results := make([][]json.RawMessage, len(namespaces))
	errs := make([]error, len(namespaces))

	var wg sync.WaitGroup
	for i, ns := range namespaces {
		wg.Add(1)
		go func(i int, ns string) {
			defer wg.Done()
			path := build(ns)
			resp, err := c.Get(ctx, path)
			if err != nil {
				errs[i] = err
				return
			}
			if items, ok := resp.Items(); ok {
				results[i] = items
				return
			}
			if resp.HasError() {
				klog.V(4).Infof("[FanOut] %s: %d %s", path, resp.StatusCode(), resp.Message())
				return
			}
			if len(resp.Body()) > 0 {
				results[i] = []json.RawMessage{resp.Body()}
			}
		}(i, ns)
	}
	wg.Wait()

	var merged []json.RawMessage
	for i := range namespaces {
		if errs[i] != nil {
			return nil, errs[i]
		}
		merged = append(merged, results[i]...)
	}
	return merged, nil
}

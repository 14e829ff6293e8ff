package k8s

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"
)

const (
	hubClientTimeout        = 45 * time.Second
	kubeconfigEventDebounce = 500 * time.Millisecond
	kubeconfigPollInterval  = 5 * time.Second
)

// HubClient is the Connector backed by client-go. It talks to one hub
// cluster selected from a kubeconfig (or the in-cluster config) and rebuilds
// its REST client when the kubeconfig changes on disk.
type HubClient struct {
	mu              sync.RWMutex
	kubeconfig      string
	context         string
	restClient      rest.Interface
	config          *rest.Config
	inClusterConfig *rest.Config
	resolver        *DiscoveryResolver
	watcher         *fsnotify.Watcher
	stopWatch       chan struct{}
	onReload        func()
}

var (
	_ Connector        = (*HubClient)(nil)
	_ EndpointResolver = (*HubClient)(nil)
)

// NewHubClient creates a hub client. An empty kubeconfig falls back to
// $KUBECONFIG, then ~/.kube/config, then the in-cluster config.
func NewHubClient(kubeconfig, contextName string) (*HubClient, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
		if kubeconfig == "" {
			home, _ := os.UserHomeDir()
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}

	client := &HubClient{
		kubeconfig: kubeconfig,
		context:    contextName,
	}

	if _, err := os.Stat(kubeconfig); os.IsNotExist(err) {
		if inClusterConfig, err := rest.InClusterConfig(); err == nil {
			klog.Info("Using in-cluster config (no kubeconfig file found)")
			client.inClusterConfig = inClusterConfig
		}
	}

	return client, nil
}

// NewHubClientForConfig creates a hub client for an explicit REST config.
// The client does not watch any kubeconfig.
func NewHubClientForConfig(config *rest.Config) (*HubClient, error) {
	client := &HubClient{}
	if err := client.SetRESTConfig(config); err != nil {
		return nil, err
	}
	return client, nil
}

// IsInCluster reports whether the client runs with the in-cluster config.
func (h *HubClient) IsInCluster() bool {
	return h.inClusterConfig != nil
}

// LoadConfig (re)builds the REST client from the kubeconfig.
func (h *HubClient) LoadConfig() error {
	var config *rest.Config
	if h.inClusterConfig != nil {
		if _, err := os.Stat(h.kubeconfig); os.IsNotExist(err) {
			config = rest.CopyConfig(h.inClusterConfig)
		}
	}
	if config == nil {
		var err error
		config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
			&clientcmd.ClientConfigLoadingRules{ExplicitPath: h.kubeconfig},
			&clientcmd.ConfigOverrides{CurrentContext: h.context},
		).ClientConfig()
		if err != nil {
			return fmt.Errorf("failed to load kubeconfig: %w", err)
		}
	}
	config.Timeout = hubClientTimeout
	return h.SetRESTConfig(config)
}

// SetRESTConfig builds the REST client from an explicit config.
func (h *HubClient) SetRESTConfig(config *rest.Config) error {
	cfg := rest.CopyConfig(config)
	if cfg.NegotiatedSerializer == nil {
		cfg.NegotiatedSerializer = scheme.Codecs.WithoutConversion()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = rest.DefaultKubernetesUserAgent()
	}
	client, err := rest.UnversionedRESTClientFor(cfg)
	if err != nil {
		return fmt.Errorf("failed to create REST client: %w", err)
	}

	h.mu.Lock()
	h.config = cfg
	h.restClient = client
	h.resolver = nil
	h.mu.Unlock()
	return nil
}

// SetRESTClient injects a REST client (for testing).
func (h *HubClient) SetRESTClient(client rest.Interface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.restClient = client
}

// Discovery returns a discovery client for the hub.
func (h *HubClient) Discovery() (discovery.DiscoveryInterface, error) {
	h.mu.RLock()
	config := h.config
	h.mu.RUnlock()
	if config == nil {
		return nil, errors.New("hub client is not configured")
	}
	return discovery.NewDiscoveryClientForConfig(config)
}

// ResourceEndpoint resolves a kind through discovery. The discovery cache is
// dropped whenever the REST config changes.
func (h *HubClient) ResourceEndpoint(ctx context.Context, apiVersion, kind, namespace string) (string, error) {
	h.mu.Lock()
	resolver := h.resolver
	h.mu.Unlock()
	if resolver == nil {
		dc, err := h.Discovery()
		if err != nil {
			return "", err
		}
		resolver = NewDiscoveryResolver(dc)
		h.mu.Lock()
		if h.resolver == nil {
			h.resolver = resolver
		} else {
			resolver = h.resolver
		}
		h.mu.Unlock()
	}
	return resolver.ResourceEndpoint(ctx, apiVersion, kind, namespace)
}

func (h *HubClient) client() (rest.Interface, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.restClient == nil {
		return nil, errors.New("hub client is not configured")
	}
	return h.restClient, nil
}

// Get issues a GET for path, which may carry a query string.
func (h *HubClient) Get(ctx context.Context, path string) (*Response, error) {
	c, err := h.client()
	if err != nil {
		return nil, err
	}
	req, err := withPath(c.Get(), path)
	if err != nil {
		return nil, err
	}
	return h.do(ctx, "GET", path, req)
}

// Post creates body under path.
func (h *HubClient) Post(ctx context.Context, path string, body any) (*Response, error) {
	c, err := h.client()
	if err != nil {
		return nil, err
	}
	return h.send(ctx, "POST", path, c.Post(), body)
}

// Put replaces the object at path with body.
func (h *HubClient) Put(ctx context.Context, path string, body any) (*Response, error) {
	c, err := h.client()
	if err != nil {
		return nil, err
	}
	return h.send(ctx, "PUT", path, c.Put(), body)
}

// Patch applies body to the object at path with the given patch type.
func (h *HubClient) Patch(ctx context.Context, path string, patchType types.PatchType, body any) (*Response, error) {
	c, err := h.client()
	if err != nil {
		return nil, err
	}
	return h.send(ctx, "PATCH", path, c.Patch(patchType), body)
}

// Delete deletes the object at path.
func (h *HubClient) Delete(ctx context.Context, path string) (*Response, error) {
	c, err := h.client()
	if err != nil {
		return nil, err
	}
	req, err := withPath(c.Delete(), path)
	if err != nil {
		return nil, err
	}
	return h.do(ctx, "DELETE", path, req)
}

// GetResources lists build(ns) for every namespace and merges the items.
func (h *HubClient) GetResources(ctx context.Context, build PathBuilder, namespaces []string) ([]json.RawMessage, error) {
	return ListAcrossNamespaces(ctx, h, build, namespaces)
}

func (h *HubClient) send(ctx context.Context, verb, path string, req *rest.Request, body any) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s %s body: %w", verb, path, err)
	}
	req, err = withPath(req, path)
	if err != nil {
		return nil, err
	}
	if verb != "PATCH" {
		req = req.SetHeader("Content-Type", "application/json")
	}
	return h.do(ctx, verb, path, req.Body(data))
}

// do executes req. A response that reached the server is always returned as
// a Response; only failures without an HTTP status are returned as errors.
func (h *HubClient) do(ctx context.Context, verb, path string, req *rest.Request) (*Response, error) {
	var code int
	result := req.Do(ctx).StatusCode(&code)
	body, err := result.Raw()
	if err == nil {
		return NewRawResponse(code, body), nil
	}

	var apiStatus apierrors.APIStatus
	if code == 0 && !errors.As(err, &apiStatus) {
		klog.Errorf("[Hub] %s %s failed: %v", verb, path, err)
		return nil, fmt.Errorf("%s %s: %w", verb, path, err)
	}

	resp := NewRawResponse(code, body)
	if resp.Kind() == "Status" {
		return resp, nil
	}
	if apiStatus != nil {
		status := apiStatus.Status()
		status.Kind = "Status"
		status.APIVersion = "v1"
		if code == 0 {
			code = int(status.Code)
		}
		out, mErr := NewResponse(code, status)
		if mErr != nil {
			return nil, mErr
		}
		return out, nil
	}
	return StatusResponse(code, "", err.Error()), nil
}

func withPath(req *rest.Request, rawPath string) (*rest.Request, error) {
	u, err := url.Parse(rawPath)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", rawPath, err)
	}
	req = req.AbsPath(u.Path)
	for key, values := range u.Query() {
		for _, v := range values {
			req = req.Param(key, v)
		}
	}
	return req, nil
}

// StartWatching watches the kubeconfig for changes. fsnotify events are
// backed by a periodic mtime poll since watches can be lost after atomic
// replacements.
func (h *HubClient) StartWatching() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	h.watcher = watcher
	h.stopWatch = make(chan struct{})

	if err := watcher.Add(h.kubeconfig); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch kubeconfig: %w", err)
	}

	dir := filepath.Dir(h.kubeconfig)
	if err := watcher.Add(dir); err != nil {
		klog.Warningf("could not watch kubeconfig directory: %v", err)
	}

	go h.watchLoop()
	klog.Infof("Watching kubeconfig for changes: %s", h.kubeconfig)
	return nil
}

// StopWatching stops the kubeconfig watch.
func (h *HubClient) StopWatching() {
	if h.stopWatch != nil {
		close(h.stopWatch)
	}
	if h.watcher != nil {
		h.watcher.Close()
	}
}

// SetOnReload sets a callback invoked after a successful reload.
func (h *HubClient) SetOnReload(callback func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onReload = callback
}

func (h *HubClient) reloadAndNotify() {
	klog.Info("Kubeconfig changed, reloading...")
	if err := h.LoadConfig(); err != nil {
		klog.Errorf("Error reloading kubeconfig: %v", err)
		return
	}

	// atomic writes leave the old inode watch dead
	if h.watcher != nil {
		_ = h.watcher.Remove(h.kubeconfig)
		if err := h.watcher.Add(h.kubeconfig); err != nil {
			klog.Warningf("could not re-watch kubeconfig file: %v", err)
		}
	}

	h.mu.RLock()
	callback := h.onReload
	h.mu.RUnlock()
	if callback != nil {
		callback()
	}
}

func (h *HubClient) watchLoop() {
	var debounceTimer *time.Timer

	pollTicker := time.NewTicker(kubeconfigPollInterval)
	defer pollTicker.Stop()
	var lastModTime time.Time
	if info, err := os.Stat(h.kubeconfig); err == nil {
		lastModTime = info.ModTime()
	}

	triggerReload := func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(kubeconfigEventDebounce, h.reloadAndNotify)
	}

	for {
		select {
		case <-h.stopWatch:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if event.Name == h.kubeconfig || filepath.Base(event.Name) == filepath.Base(h.kubeconfig) {
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if info, err := os.Stat(h.kubeconfig); err == nil {
						lastModTime = info.ModTime()
					}
					triggerReload()
				}
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			klog.Errorf("Kubeconfig watcher error: %v", err)
		case <-pollTicker.C:
			info, err := os.Stat(h.kubeconfig)
			if err != nil {
				continue
			}
			if info.ModTime() != lastModTime {
				lastModTime = info.ModTime()
				klog.V(2).Info("Kubeconfig change detected by poll")
				triggerReload()
			}
		}
	}
}

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"sync"

	"github.com/kubestellar/hub-console/pkg/k8s"
	jsonpatch "gopkg.in/evanphx/json-patch.v4"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/types"
)

// RouteFunc answers one request. body is nil for GET and DELETE.
type RouteFunc func(body any) (*k8s.Response, error)

// Call is a request recorded by FakeConnector
type Call struct {
	Method    string
	Path      string
	Body      any
	PatchType types.PatchType
}

// FakeConnector is an in-memory k8s.Connector. Explicit routes registered
// with On take precedence; everything else is served from an object store
// keyed by collection path that behaves like an API server for create,
// read, replace, merge patch and delete.
type FakeConnector struct {
	mu          sync.Mutex
	routes      map[string]RouteFunc
	collections map[string]map[string]map[string]any
	calls       []Call
	version     int
}

// NewFakeConnector creates an empty fake
func NewFakeConnector() *FakeConnector {
	return &FakeConnector{
		routes:      make(map[string]RouteFunc),
		collections: make(map[string]map[string]map[string]any),
	}
}

var _ k8s.Connector = (*FakeConnector)(nil)

// On routes method+path (including any query string) to fn
func (f *FakeConnector) On(method, p string, fn RouteFunc) *FakeConnector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+p] = fn
	return f
}

// Respond routes method+path to a fixed response
func (f *FakeConnector) Respond(method, p string, resp *k8s.Response) *FakeConnector {
	return f.On(method, p, func(any) (*k8s.Response, error) { return resp, nil })
}

// Fail routes method+path to a transport error
func (f *FakeConnector) Fail(method, p string, err error) *FakeConnector {
	return f.On(method, p, func(any) (*k8s.Response, error) { return nil, err })
}

// AddCollection registers an empty collection so lists of it succeed
func (f *FakeConnector) AddCollection(collection string) *FakeConnector {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collection(collection)
	return f
}

// AddObject stores obj under collection, keyed by metadata.name
func (f *FakeConnector) AddObject(collection string, obj any) *FakeConnector {
	m, err := toMap(obj)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store(collection, m)
	return f
}

// Object returns a stored object
func (f *FakeConnector) Object(collection, name string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.collections[collection][name]
	return obj, ok
}

// Calls returns the recorded requests for method, or all when method is empty
func (f *FakeConnector) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// CallCount counts requests for method+path
func (f *FakeConnector) CallCount(method, p string) int {
	n := 0
	for _, c := range f.Calls(method) {
		if c.Path == p {
			n++
		}
	}
	return n
}

func (f *FakeConnector) Get(_ context.Context, p string) (*k8s.Response, error) {
	return f.serve(Call{Method: http.MethodGet, Path: p})
}

func (f *FakeConnector) Post(_ context.Context, p string, body any) (*k8s.Response, error) {
	return f.serve(Call{Method: http.MethodPost, Path: p, Body: body})
}

func (f *FakeConnector) Put(_ context.Context, p string, body any) (*k8s.Response, error) {
	return f.serve(Call{Method: http.MethodPut, Path: p, Body: body})
}

func (f *FakeConnector) Patch(_ context.Context, p string, patchType types.PatchType, body any) (*k8s.Response, error) {
	return f.serve(Call{Method: http.MethodPatch, Path: p, Body: body, PatchType: patchType})
}

func (f *FakeConnector) Delete(_ context.Context, p string) (*k8s.Response, error) {
	return f.serve(Call{Method: http.MethodDelete, Path: p})
}

func (f *FakeConnector) GetResources(ctx context.Context, build k8s.PathBuilder, namespaces []string) ([]json.RawMessage, error) {
	return k8s.ListAcrossNamespaces(ctx, f, build, namespaces)
}

func (f *FakeConnector) serve(call Call) (*k8s.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	route, ok := f.routes[call.Method+" "+call.Path]
	f.mu.Unlock()
	if ok {
		return route(call.Body)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	u, err := url.Parse(call.Path)
	if err != nil {
		return nil, err
	}
	switch call.Method {
	case http.MethodGet:
		return f.get(u)
	case http.MethodPost:
		return f.create(u.Path, call.Body)
	case http.MethodPut:
		return f.replace(u.Path, call.Body)
	case http.MethodPatch:
		return f.patch(u.Path, call.Body)
	case http.MethodDelete:
		return f.remove(u.Path)
	}
	return nil, fmt.Errorf("unsupported method %s", call.Method)
}

func (f *FakeConnector) get(u *url.URL) (*k8s.Response, error) {
	if objs, ok := f.collections[u.Path]; ok {
		selector := labels.Everything()
		if raw := u.Query().Get("labelSelector"); raw != "" {
			parsed, err := labels.Parse(raw)
			if err != nil {
				return k8s.StatusResponse(http.StatusBadRequest, metav1.StatusReasonBadRequest, err.Error()), nil
			}
			selector = parsed
		}
		names := make([]string, 0, len(objs))
		for name := range objs {
			names = append(names, name)
		}
		sort.Strings(names)
		items := make([]any, 0, len(names))
		for _, name := range names {
			if selector.Matches(labels.Set(objectLabels(objs[name]))) {
				items = append(items, objs[name])
			}
		}
		return k8s.NewResponse(http.StatusOK, map[string]any{"kind": "List", "items": items})
	}
	collection, name := path.Split(u.Path)
	if obj, ok := f.collections[path.Clean(collection)][name]; ok {
		return k8s.NewResponse(http.StatusOK, obj)
	}
	return notFound(name), nil
}

func (f *FakeConnector) create(collection string, body any) (*k8s.Response, error) {
	obj, err := toMap(body)
	if err != nil {
		return nil, err
	}
	name := objectName(obj)
	if _, exists := f.collections[collection][name]; exists {
		return k8s.StatusResponse(http.StatusConflict, metav1.StatusReasonAlreadyExists,
			fmt.Sprintf("%q already exists", name)), nil
	}
	f.store(collection, obj)
	return k8s.NewResponse(http.StatusCreated, obj)
}

func (f *FakeConnector) replace(p string, body any) (*k8s.Response, error) {
	collection, name := path.Split(p)
	collection = path.Clean(collection)
	current, ok := f.collections[collection][name]
	if !ok {
		return notFound(name), nil
	}
	obj, err := toMap(body)
	if err != nil {
		return nil, err
	}
	if resourceVersion(obj) != resourceVersion(current) {
		return k8s.StatusResponse(http.StatusConflict, metav1.StatusReasonConflict,
			fmt.Sprintf("the object %q has been modified", name)), nil
	}
	f.store(collection, obj)
	return k8s.NewResponse(http.StatusOK, obj)
}

func (f *FakeConnector) patch(p string, body any) (*k8s.Response, error) {
	collection, name := path.Split(p)
	collection = path.Clean(collection)
	current, ok := f.collections[collection][name]
	if !ok {
		return notFound(name), nil
	}
	merged, err := mergePatch(current, body)
	if err != nil {
		return k8s.StatusResponse(http.StatusUnprocessableEntity, metav1.StatusReasonInvalid, err.Error()), nil
	}
	f.store(collection, merged)
	return k8s.NewResponse(http.StatusOK, merged)
}

func (f *FakeConnector) remove(p string) (*k8s.Response, error) {
	collection, name := path.Split(p)
	collection = path.Clean(collection)
	if _, ok := f.collections[collection][name]; !ok {
		return notFound(name), nil
	}
	delete(f.collections[collection], name)
	return k8s.StatusResponse(http.StatusOK, "", ""), nil
}

func (f *FakeConnector) collection(collection string) map[string]map[string]any {
	objs, ok := f.collections[collection]
	if !ok {
		objs = make(map[string]map[string]any)
		f.collections[collection] = objs
	}
	return objs
}

func (f *FakeConnector) store(collection string, obj map[string]any) {
	f.version++
	md, _ := obj["metadata"].(map[string]any)
	if md == nil {
		md = map[string]any{}
		obj["metadata"] = md
	}
	md["resourceVersion"] = strconv.Itoa(f.version)
	f.collection(collection)[objectName(obj)] = obj
}

func notFound(name string) *k8s.Response {
	return k8s.StatusResponse(http.StatusNotFound, metav1.StatusReasonNotFound, fmt.Sprintf("%q not found", name))
}

func toMap(obj any) (map[string]any, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

func objectName(obj map[string]any) string {
	md, _ := obj["metadata"].(map[string]any)
	name, _ := md["name"].(string)
	return name
}

func resourceVersion(obj map[string]any) string {
	md, _ := obj["metadata"].(map[string]any)
	rv, _ := md["resourceVersion"].(string)
	return rv
}

func objectLabels(obj map[string]any) map[string]string {
	md, _ := obj["metadata"].(map[string]any)
	raw, _ := md["labels"].(map[string]any)
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// mergePatch applies a JSON merge patch to target
func mergePatch(target map[string]any, patch any) (map[string]any, error) {
	doc, err := json.Marshal(target)
	if err != nil {
		return nil, err
	}
	p, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}
	out, err := jsonpatch.MergePatch(doc, p)
	if err != nil {
		return nil, err
	}
	var merged map[string]any
	if err := json.Unmarshal(out, &merged); err != nil {
		return nil, err
	}
	return merged, nil
}

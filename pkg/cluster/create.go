package cluster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/metrics"
	"github.com/kubestellar/hub-console/pkg/models"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/klog/v2"
)

// resultBuilder accumulates the outcome of a create run.
type resultBuilder struct {
	result models.CreateResult
}

func newResultBuilder() *resultBuilder {
	return &resultBuilder{result: models.CreateResult{
		OperationID: uuid.NewString(),
		Errors:      []models.ResultError{},
		Created:     []models.ResourceRef{},
		Updated:     []models.ResourceRef{},
	}}
}

func (b *resultBuilder) fail(format string, args ...any) {
	b.result.Errors = append(b.result.Errors, models.ResultError{Message: fmt.Sprintf(format, args...)})
}

// collect records resp as an error when it is one and reports whether it was.
func (b *resultBuilder) collect(resp *k8s.Response) bool {
	if !resp.HasError() {
		return false
	}
	msg := resp.Message()
	if msg == "" {
		msg = fmt.Sprintf("%d %s", resp.StatusCode(), http.StatusText(resp.StatusCode()))
	}
	b.result.Errors = append(b.result.Errors, models.ResultError{Message: msg})
	return true
}

func (b *resultBuilder) failed() bool {
	return len(b.result.Errors) > 0
}

// write is one manifest with the collection path it is created under.
type write struct {
	manifest *unstructured.Unstructured
	endpoint string
}

// CreateCluster creates or updates the resources of a new or imported
// cluster. Upstream failures are reported in the result; only transport
// failures outside of resource writes are returned as errors.
func (m *Model) CreateCluster(ctx context.Context, manifests []*unstructured.Unstructured) (*models.CreateResult, error) {
	b := newResultBuilder()
	log := klog.FromContext(ctx).WithValues("operation", b.result.OperationID)

	result, err := m.createCluster(ctx, b, manifests)
	switch {
	case err != nil:
		log.Error(err, "Cluster create aborted")
		metrics.RecordWorkflow(metrics.WorkflowCreate, metrics.OutcomeError)
		return nil, err
	case result.Succeeded():
		metrics.RecordWorkflow(metrics.WorkflowCreate, metrics.OutcomeSuccess)
	default:
		metrics.RecordWorkflow(metrics.WorkflowCreate, metrics.OutcomeFailure)
	}
	log.Info("Cluster create finished",
		"created", len(result.Created), "updated", len(result.Updated), "errors", len(result.Errors))
	return result, nil
}

func (m *Model) createCluster(ctx context.Context, b *resultBuilder, manifests []*unstructured.Unstructured) (*models.CreateResult, error) {
	namespace, resources := splitNamespace(manifests)

	writes, err := m.resolveEndpoints(ctx, b, resources, namespace)
	if err != nil {
		return nil, err
	}
	if b.failed() {
		return &b.result, nil
	}
	if namespace == "" {
		b.fail("No namespace specified")
		return &b.result, nil
	}

	var deployments []write
	var rest []write
	for _, w := range writes {
		if w.manifest.GetKind() == "ClusterDeployment" {
			deployments = append(deployments, w)
			continue
		}
		rest = append(rest, w)
	}

	checks := namespaceChecks{
		managedCluster:    !declaresManagedCluster(resources, namespace),
		clusterDeployment: len(deployments) > 0,
	}
	nsResp, err := m.ensureNamespace(ctx, namespace, checks)
	if err != nil {
		var nsErr *NamespaceError
		if errors.As(err, &nsErr) {
			b.fail("%s", nsErr.Error())
			return &b.result, nil
		}
		return nil, err
	}
	if b.collect(nsResp) {
		return &b.result, nil
	}

	conflicts := m.createAll(ctx, b, rest)

	if !b.failed() && len(conflicts) > 0 {
		if err := m.replaceAll(ctx, b, conflicts); err != nil {
			return nil, err
		}
	}

	if b.failed() {
		return &b.result, nil
	}
	if len(deployments) > 0 {
		// created last so a retry after a failure does not trip over the
		// deployment check on the namespace
		for _, w := range deployments {
			resp, err := m.conn.Post(ctx, w.endpoint, w.manifest)
			if err != nil {
				klog.Errorf("[Create] POST %s: %v", w.endpoint, err)
				b.fail("%s", err.Error())
				continue
			}
			if !b.collect(resp) {
				b.result.Created = append(b.result.Created, createdRef(resp, w.manifest))
			}
		}
		return &b.result, nil
	}

	secret, err := m.PollImportSecret(ctx, namespace, namespace)
	if err != nil {
		return nil, err
	}
	if !b.collect(secret) {
		var s corev1.Secret
		if err := secret.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode import secret: %w", err)
		}
		b.result.ImportSecret = &s
	}
	return &b.result, nil
}

// splitNamespace removes Namespace manifests and determines the target
// namespace. Sources, in manifest order, last non-empty value wins: a
// Namespace's name, a ClusterDeployment's namespace, a ManagedCluster's name
// and any spec.clusterNamespace.
func splitNamespace(manifests []*unstructured.Unstructured) (string, []*unstructured.Unstructured) {
	var namespace string
	resources := make([]*unstructured.Unstructured, 0, len(manifests))
	set := func(v string) {
		if v != "" {
			namespace = v
		}
	}
	for _, u := range manifests {
		if u == nil {
			continue
		}
		switch u.GetKind() {
		case "Namespace":
			set(u.GetName())
			continue
		case "ClusterDeployment":
			set(u.GetNamespace())
		case "ManagedCluster":
			set(u.GetName())
		default:
			v, _, _ := unstructured.NestedString(u.Object, "spec", "clusterNamespace")
			set(v)
		}
		resources = append(resources, u)
	}
	return namespace, resources
}

func declaresManagedCluster(resources []*unstructured.Unstructured, name string) bool {
	for _, u := range resources {
		if u.GetKind() == "ManagedCluster" && u.GetName() == name {
			return true
		}
	}
	return false
}

// resolveEndpoints looks up the collection path of every manifest. Unknown
// API versions and unmapped kinds are reported together; lookup failures of
// any other sort are returned.
func (m *Model) resolveEndpoints(ctx context.Context, b *resultBuilder, resources []*unstructured.Unstructured, namespace string) ([]write, error) {
	if len(resources) == 0 {
		b.fail("Cannot find any endpoints")
		return nil, nil
	}
	if m.resolver == nil {
		return nil, errors.New("no endpoint resolver configured")
	}

	writes := make([]write, len(resources))
	errs := make([]error, len(resources))
	var wg sync.WaitGroup
	for i, u := range resources {
		wg.Add(1)
		go func(i int, u *unstructured.Unstructured) {
			defer wg.Done()
			ns := u.GetNamespace()
			if ns == "" {
				ns = namespace
			}
			writes[i].manifest = u
			writes[i].endpoint, errs[i] = m.resolver.ResourceEndpoint(ctx, u.GetAPIVersion(), u.GetKind(), ns)
		}(i, u)
	}
	wg.Wait()

	var missingTypes, missingEndpoints []string
	for i, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, k8s.ErrUnknownAPIVersion):
			missingTypes = append(missingTypes, resources[i].GetAPIVersion())
		case errors.Is(err, k8s.ErrUnknownKind):
			missingEndpoints = append(missingEndpoints, resources[i].GetKind())
		default:
			klog.Errorf("[Create] resolve %s %s: %v", resources[i].GetAPIVersion(), resources[i].GetKind(), err)
			return nil, fmt.Errorf("failed to resolve endpoint for %s: %w", resources[i].GetKind(), err)
		}
	}
	if len(missingTypes) > 0 {
		b.fail("Cannot find resource types: %s", strings.Join(missingTypes, ", "))
	}
	if len(missingEndpoints) > 0 {
		b.fail("Cannot find endpoints: %s", strings.Join(missingEndpoints, ", "))
	}
	return writes, nil
}

// createAll posts every write concurrently and returns those that already
// exist. Failures, including transport failures, are recorded in b.
func (m *Model) createAll(ctx context.Context, b *resultBuilder, writes []write) []write {
	resps := make([]*k8s.Response, len(writes))
	errs := make([]error, len(writes))
	var wg sync.WaitGroup
	for i, w := range writes {
		wg.Add(1)
		go func(i int, w write) {
			defer wg.Done()
			resps[i], errs[i] = m.conn.Post(ctx, w.endpoint, w.manifest)
		}(i, w)
	}
	wg.Wait()

	var conflicts []write
	for i, resp := range resps {
		switch {
		case errs[i] != nil:
			klog.Errorf("[Create] POST %s: %v", writes[i].endpoint, errs[i])
			b.fail("%s", errs[i].Error())
		case !resp.HasError():
			b.result.Created = append(b.result.Created, createdRef(resp, writes[i].manifest))
		case resp.StatusCode() == http.StatusConflict:
			conflicts = append(conflicts, writes[i])
		default:
			b.collect(resp)
		}
	}
	return conflicts
}

// replaceAll replaces existing resources with the submitted manifests,
// carrying over their current resourceVersion.
func (m *Model) replaceAll(ctx context.Context, b *resultBuilder, writes []write) error {
	resps := make([]*k8s.Response, len(writes))
	errs := make([]error, len(writes))
	var wg sync.WaitGroup
	for i, w := range writes {
		wg.Add(1)
		go func(i int, w write) {
			defer wg.Done()
			resps[i], errs[i] = m.replace(ctx, w)
		}(i, w)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return err
		}
		if !b.collect(resps[i]) {
			b.result.Updated = append(b.result.Updated, createdRef(resps[i], writes[i].manifest))
		}
	}
	return nil
}

func (m *Model) replace(ctx context.Context, w write) (*k8s.Response, error) {
	p := path.Join(w.endpoint, w.manifest.GetName())
	existing, err := m.conn.Get(ctx, p)
	if err != nil {
		klog.Errorf("[Create] GET %s: %v", p, err)
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	var current unstructured.Unstructured
	if !existing.HasError() {
		if err := existing.Decode(&current.Object); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p, err)
		}
	}

	manifest := w.manifest.DeepCopy()
	manifest.SetResourceVersion(current.GetResourceVersion())
	resp, err := m.conn.Put(ctx, p, manifest)
	if err != nil {
		klog.Errorf("[Create] PUT %s: %v", p, err)
		return nil, fmt.Errorf("failed to replace %s: %w", p, err)
	}
	return resp, nil
}

// createdRef names the resource returned by a write, falling back to the
// submitted manifest.
func createdRef(resp *k8s.Response, manifest *unstructured.Unstructured) models.ResourceRef {
	var obj unstructured.Unstructured
	if err := resp.Decode(&obj.Object); err == nil {
		if ref := (models.ResourceRef{Name: obj.GetName(), Kind: obj.GetKind()}); ref.Name != "" {
			if ref.Kind == "" {
				ref.Kind = manifest.GetKind()
			}
			return ref
		}
	}
	return models.ResourceRef{Name: manifest.GetName(), Kind: manifest.GetKind()}
}

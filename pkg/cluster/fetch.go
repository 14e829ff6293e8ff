package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/metrics"
	"github.com/kubestellar/hub-console/pkg/models"
	batchv1 "k8s.io/api/batch/v1"
	certificatesv1beta1 "k8s.io/api/certificates/v1beta1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
)

// Bundle holds the six collections cluster status is derived from.
type Bundle struct {
	ManagedClusters     []models.ManagedCluster
	ManagedClusterInfos []models.ManagedClusterInfo
	ClusterDeployments  []models.ClusterDeployment
	CSRs                []certificatesv1beta1.CertificateSigningRequest
	UninstallJobs       []batchv1.Job
	InstallJobs         []batchv1.Job
}

// namespaceSource resolves the fallback namespace set at most once per fetch.
type namespaceSource func() ([]string, error)

// FetchAll reads all six collections concurrently. A collection that cannot
// be listed cluster-wide is listed per cluster namespace instead. Any
// transport failure fails the whole bundle.
func (m *Model) FetchAll(ctx context.Context) (*Bundle, error) {
	namespaces := namespaceSource(sync.OnceValues(func() ([]string, error) {
		return m.clusterNamespaces(ctx)
	}))

	var (
		b    Bundle
		wg   sync.WaitGroup
		errs = make([]error, 6)
	)
	run := func(i int, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn()
		}()
	}

	run(0, func() (err error) {
		b.ManagedClusters, err = fallbackList[models.ManagedCluster](ctx, m.conn, "managedclusters",
			k8s.ManagedClustersPath, k8s.ManagedClusterPath, namespaces)
		return err
	})
	run(1, func() (err error) {
		b.ManagedClusterInfos, err = fallbackList[models.ManagedClusterInfo](ctx, m.conn, "managedclusterinfos",
			k8s.ManagedClusterInfosPath, k8s.NamespacedManagedClusterInfosPath, namespaces)
		return err
	})
	run(2, func() (err error) {
		b.ClusterDeployments, err = fallbackList[models.ClusterDeployment](ctx, m.conn, "clusterdeployments",
			k8s.ClusterDeploymentsPath, k8s.NamespacedClusterDeploymentsPath, namespaces)
		return err
	})
	run(3, func() (err error) {
		b.CSRs, err = globalList[certificatesv1beta1.CertificateSigningRequest](ctx, m.conn, "certificatesigningrequests",
			selectorPath(k8s.CertificateSigningRequests, k8s.AllClusterCSRs()))
		return err
	})
	run(4, func() (err error) {
		b.UninstallJobs, err = fallbackList[batchv1.Job](ctx, m.conn, "uninstalljobs",
			selectorPath(k8s.JobsPath, k8s.AllUninstallJobs()), namespacedJobs(k8s.UninstallJobs), namespaces)
		return err
	})
	run(5, func() (err error) {
		b.InstallJobs, err = fallbackList[batchv1.Job](ctx, m.conn, "installjobs",
			selectorPath(k8s.JobsPath, k8s.AllInstallJobs()), namespacedJobs(k8s.InstallJobs), namespaces)
		return err
	})
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &b, nil
}

// fallbackList lists clusterPath and, when the response carries no items,
// lists build(ns) for every cluster namespace and merges the results.
func fallbackList[T any](ctx context.Context, conn k8s.Connector, collection, clusterPath string, build k8s.PathBuilder, namespaces namespaceSource) (items []T, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFetch(collection, time.Since(start), err) }()

	resp, err := conn.Get(ctx, clusterPath)
	if err != nil {
		klog.Errorf("[Fetch] %s: %v", collection, err)
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	raw, ok := resp.Items()
	if !ok {
		klog.V(2).Infof("[Fetch] %s not listable cluster-wide (%d), falling back to cluster namespaces", collection, resp.StatusCode())
		metrics.RecordNamespaceFallback(collection)
		ns, err := namespaces()
		if err != nil {
			return nil, err
		}
		raw, err = conn.GetResources(ctx, build, ns)
		if err != nil {
			klog.Errorf("[Fetch] %s namespace fallback: %v", collection, err)
			return nil, fmt.Errorf("failed to list %s by namespace: %w", collection, err)
		}
	}
	return decodeList[T](collection, raw)
}

// globalList lists p with no namespace fallback. A response without items
// is an empty collection.
func globalList[T any](ctx context.Context, conn k8s.Connector, collection, p string) (items []T, err error) {
	start := time.Now()
	defer func() { metrics.ObserveFetch(collection, time.Since(start), err) }()

	resp, err := conn.Get(ctx, p)
	if err != nil {
		klog.Errorf("[Fetch] %s: %v", collection, err)
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	raw, _ := resp.Items()
	return decodeList[T](collection, raw)
}

// decodeList decodes raw list items. Items that do not decode are logged and
// skipped so one malformed object does not hide the rest of the fleet.
func decodeList[T any](collection string, raw []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			klog.V(2).Infof("[Fetch] skipping %s item %d: %v", collection, i, err)
			continue
		}
		items = append(items, v)
	}
	return items, nil
}

// clusterNamespaces returns the configured namespaces, or the namespaces
// carrying the managed cluster namespace label.
func (m *Model) clusterNamespaces(ctx context.Context) ([]string, error) {
	if len(m.namespaces) > 0 {
		return m.namespaces, nil
	}
	resp, err := m.conn.Get(ctx, selectorPath(k8s.NamespacesPath, k8s.ClusterNamespaces()))
	if err != nil {
		klog.Errorf("[Fetch] cluster namespaces: %v", err)
		return nil, fmt.Errorf("failed to list cluster namespaces: %w", err)
	}
	raw, ok := resp.Items()
	if !ok {
		klog.V(2).Infof("[Fetch] cannot list cluster namespaces (%d): %s", resp.StatusCode(), resp.Message())
		return nil, nil
	}
	list, err := k8s.DecodeItems[metav1.PartialObjectMetadata](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode namespaces: %w", err)
	}
	names := make([]string, 0, len(list))
	for _, ns := range list {
		names = append(names, ns.Name)
	}
	return names, nil
}

// selectorPath renders sel onto p. The fixed selectors used here are built
// from constant keys and values, and namespace names are valid label values.
func selectorPath(p string, sel *k8s.Selector) string {
	return k8s.WithQuery(p, url.Values{"labelSelector": []string{sel.String()}})
}

// namespacedJobs lists the jobs of the cluster living in namespace ns.
func namespacedJobs(sel func(cluster string) *k8s.Selector) k8s.PathBuilder {
	return func(ns string) string {
		return selectorPath(k8s.NamespacedJobsPath(ns), sel(ns))
	}
}

package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	batchv1 "k8s.io/api/batch/v1"
	certificatesv1beta1 "k8s.io/api/certificates/v1beta1"
	"k8s.io/klog/v2"
)

// GetSingleCluster reads one cluster's resources directly and returns its
// detailed view with the deployment secret names attached. The result is
// empty when the cluster has no deployment and either its ManagedCluster or
// its ManagedClusterInfo cannot be read.
func (m *Model) GetSingleCluster(ctx context.Context, name string) ([]models.ClusterView, error) {
	csrPath, err := k8s.ClusterCSRs(name).Path(k8s.CertificateSigningRequests)
	if err != nil {
		return nil, err
	}
	uninstallPath, err := k8s.UninstallJobs(name).Path(k8s.NamespacedJobsPath(name))
	if err != nil {
		return nil, err
	}
	installPath, err := k8s.InstallJobs(name).Path(k8s.NamespacedJobsPath(name))
	if err != nil {
		return nil, err
	}

	paths := []string{
		k8s.ManagedClusterPath(name),
		k8s.ClusterDeploymentPath(name, name),
		k8s.ManagedClusterInfoPath(name, name),
		csrPath,
		uninstallPath,
		installPath,
	}
	resps := make([]*k8s.Response, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			resps[i], errs[i] = m.conn.Get(ctx, p)
		}(i, p)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			klog.Errorf("[Cluster] GET %s: %v", paths[i], err)
			return nil, fmt.Errorf("failed to read cluster %s: %w", name, err)
		}
	}
	mcResp, cdResp, infoResp := resps[0], resps[1], resps[2]

	if (mcResp.HasError() || infoResp.HasError()) && cdResp.HasError() {
		return []models.ClusterView{}, nil
	}

	var b Bundle
	if err := decodeSingle(mcResp, &b.ManagedClusters); err != nil {
		return nil, err
	}
	if err := decodeSingle(cdResp, &b.ClusterDeployments); err != nil {
		return nil, err
	}
	if err := decodeSingle(infoResp, &b.ManagedClusterInfos); err != nil {
		return nil, err
	}
	if b.CSRs, err = itemsOf[certificatesv1beta1.CertificateSigningRequest](resps[3]); err != nil {
		return nil, err
	}
	if b.UninstallJobs, err = itemsOf[batchv1.Job](resps[4]); err != nil {
		return nil, err
	}
	if b.InstallJobs, err = itemsOf[batchv1.Job](resps[5]); err != nil {
		return nil, err
	}

	idx := NewIndex(&b)
	if len(idx.Names()) == 0 {
		return []models.ClusterView{}, nil
	}
	view := idx.Detailed(idx.Names()[0])
	secrets := idx.Resources(view.Name()).ClusterDeployment.Secrets()
	view.DeploymentSecrets = &secrets
	return []models.ClusterView{view}, nil
}

// decodeSingle appends a successfully read object to list.
func decodeSingle[T any](resp *k8s.Response, list *[]T) error {
	if resp.HasError() {
		return nil
	}
	var obj T
	if err := resp.Decode(&obj); err != nil {
		return fmt.Errorf("failed to decode %s: %w", resp.Kind(), err)
	}
	*list = append(*list, obj)
	return nil
}

// itemsOf decodes the items of a list response; other responses are empty.
func itemsOf[T any](resp *k8s.Response) ([]T, error) {
	raw, _ := resp.Items()
	return k8s.DecodeItems[T](raw)
}

package cluster

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/metrics"
	"k8s.io/klog/v2"
)

// PollImportSecret reads the import secret of cluster, retrying at a fixed
// interval while it is not found. After the retry cap the last response is
// returned as is, which may still be a 404.
func (m *Model) PollImportSecret(ctx context.Context, namespace, cluster string) (*k8s.Response, error) {
	p := k8s.ImportSecretPath(namespace, cluster)
	for attempt := 0; ; attempt++ {
		resp, err := m.conn.Get(ctx, p)
		if err != nil {
			klog.Errorf("[ImportSecret] %s: %v", p, err)
			return nil, fmt.Errorf("failed to read import secret %s: %w", p, err)
		}
		found := resp.StatusCode() != http.StatusNotFound
		metrics.RecordImportPoll(found)
		if found || attempt >= m.pollRetries {
			return resp, nil
		}

		klog.V(2).Infof("[ImportSecret] %s not found, retry %d/%d", p, attempt+1, m.pollRetries)
		timer := time.NewTimer(m.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

package cluster

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kubestellar/hub-console/pkg/k8s"
	"github.com/kubestellar/hub-console/pkg/models"
	"k8s.io/klog/v2"
)

// GetClusterImageSets lists the release images clusters can be created from,
// one entry per release image, newest release first.
func (m *Model) GetClusterImageSets(ctx context.Context) ([]models.ImageSet, error) {
	resp, err := m.conn.Get(ctx, k8s.ClusterImageSetsPath)
	if err != nil {
		klog.Errorf("[Cluster] list cluster image sets: %v", err)
		return nil, fmt.Errorf("failed to list cluster image sets: %w", err)
	}
	raw, ok := resp.Items()
	if !ok && resp.HasError() {
		return nil, k8s.NewAPIError(resp, "ClusterImageSet")
	}
	list, err := k8s.DecodeItems[models.ClusterImageSet](raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cluster image sets: %w", err)
	}

	byImage := make(map[string]models.ImageSet, len(list))
	for _, is := range list {
		if is.Name == "" || is.Spec.ReleaseImage == "" {
			continue
		}
		l := is.Labels
		byImage[is.Spec.ReleaseImage] = models.ImageSet{
			Name:           is.Name,
			ReleaseImage:   is.Spec.ReleaseImage,
			Channel:        l["channel"],
			Visible:        l["visible"],
			PlatformAws:    l["platform.aws"],
			PlatformGcp:    l["platform.gcp"],
			PlatformAzure:  l["platform.azure"],
			PlatformBmc:    l["platform.bmc"],
			PlatformVmware: l["platform.vmware"],
		}
	}

	out := make([]models.ImageSet, 0, len(byImage))
	for _, is := range byImage {
		out = append(out, is)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := imageTag(out[i].ReleaseImage), imageTag(out[j].ReleaseImage)
		if ti != tj {
			return newerVersion(ti, tj)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// imageTag returns the tag of an image reference, "" for digests and
// untagged references.
func imageTag(image string) string {
	if strings.Contains(image, "@") {
		return ""
	}
	i := strings.LastIndex(image, ":")
	if i < 0 || strings.Contains(image[i+1:], "/") {
		return ""
	}
	return image[i+1:]
}

package cluster

import (
	"context"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/kubestellar/hub-console/pkg/models"
)

const unknownVersion = "-"

// GetClusters returns the detailed view of every cluster. A non-empty name
// restricts the result to that cluster, which may be absent.
func (m *Model) GetClusters(ctx context.Context, name string) ([]models.ClusterView, error) {
	bundle, err := m.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	idx := NewIndex(bundle)
	views := make([]models.ClusterView, 0, len(idx.Names()))
	for _, n := range idx.Names() {
		if name != "" && n != name {
			continue
		}
		views = append(views, idx.Detailed(n))
	}
	return views, nil
}

// GetAllClusters returns the overview of every cluster. A non-empty name
// restricts the result to that cluster, which may be absent.
func (m *Model) GetAllClusters(ctx context.Context, name string) ([]models.ClusterOverview, error) {
	bundle, err := m.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	idx := NewIndex(bundle)
	rows := make([]models.ClusterOverview, 0, len(idx.Names()))
	for _, n := range idx.Names() {
		if name != "" && n != name {
			continue
		}
		rows = append(rows, idx.Overview(n))
	}
	return rows, nil
}

// Base builds the identity and endpoints of one cluster.
func (idx *Index) Base(name string) models.BaseCluster {
	r := idx.Resources(name)
	mc, info, cd := r.ManagedCluster, r.ManagedClusterInfo, r.ClusterDeployment

	var base models.BaseCluster
	switch {
	case mc != nil:
		base.Metadata = *mc.ObjectMeta.DeepCopy()
	case info != nil:
		base.Metadata.Name, base.Metadata.Namespace = info.Name, info.Namespace
	case cd != nil:
		base.Metadata.Name, base.Metadata.Namespace = cd.Name, cd.Namespace
	}
	if base.Metadata.Namespace == "" {
		switch {
		case info != nil && info.Namespace != "":
			base.Metadata.Namespace = info.Namespace
		case info == nil && cd != nil && cd.Namespace != "":
			base.Metadata.Namespace = cd.Namespace
		default:
			base.Metadata.Namespace = base.Metadata.Name
		}
	}
	if base.Metadata.Labels == nil && info != nil {
		base.Metadata.Labels = info.Labels
	}

	if info != nil {
		base.ClusterIP = info.Spec.MasterEndpoint
		base.ConsoleURL = info.Status.ConsoleURL
		base.ServerAddress = info.Spec.MasterEndpoint
	}
	if cd != nil {
		if base.ConsoleURL == "" {
			base.ConsoleURL = cd.Status.WebConsoleURL
		}
		if cd.Status.APIURL != "" {
			base.ServerAddress = cd.Status.APIURL
		}
	}
	base.RawCluster = mc
	base.RawStatus = info
	return base
}

// Detailed builds the detailed view of one cluster.
func (idx *Index) Detailed(name string) models.ClusterView {
	r := idx.Resources(name)
	view := models.ClusterView{
		BaseCluster: idx.Base(name),
		K8sVersion:  unknownVersion,
		IsHive:      r.ClusterDeployment != nil,
		IsManaged:   r.ManagedCluster != nil,
	}
	view.Status = DeriveStatus(r.ManagedCluster, r.CSRs, r.ClusterDeployment, r.UninstallJobs, r.InstallJobs)

	if info := r.ManagedClusterInfo; info != nil {
		if n := len(info.Status.NodeList); n > 0 {
			view.Nodes = &n
		}
		if info.Status.Version != "" {
			view.K8sVersion = info.Status.Version
		}
		if ocp := info.Status.DistributionInfo.OCP; ocp != nil {
			view.AvailableVersions = sortVersions(ocp.AvailableUpdates)
			view.DesiredVersion = ocp.DesiredVersion
			view.DistributionVersion = ocp.Version
			upgradeFailed := ocp.UpgradeFailed
			view.UpgradeFailed = &upgradeFailed
		}
	}
	return view
}

// Overview builds the overview row of one cluster. Status comes from the
// registration side only.
func (idx *Index) Overview(name string) models.ClusterOverview {
	r := idx.Resources(name)
	row := models.ClusterOverview{BaseCluster: idx.Base(name)}
	row.Status = DeriveStatus(r.ManagedCluster, nil, nil, nil, nil)
	if mc := r.ManagedCluster; mc != nil {
		row.Capacity = mc.Status.Capacity
		row.Allocatable = mc.Status.Allocatable
	}
	return row
}

// sortVersions orders versions newest first. Strings that are not versions
// follow in lexical order, empty strings last.
func sortVersions(versions []string) []string {
	out := append([]string(nil), versions...)
	sort.SliceStable(out, func(i, j int) bool {
		return newerVersion(out[i], out[j])
	})
	return out
}

func newerVersion(a, b string) bool {
	va, vb := parseVersion(a), parseVersion(b)
	switch {
	case va != nil && vb != nil:
		if !va.Equal(vb) {
			return va.GreaterThan(vb)
		}
		return a < b
	case va != nil:
		return true
	case vb != nil:
		return false
	case a == "" || b == "":
		return b == "" && a != ""
	}
	return a < b
}

// parseVersion parses a release tag. Release image tags carry an
// architecture suffix ("4.9.3-x86_64") that is not a valid pre-release, so
// on failure the version core before the first "-" is parsed instead.
func parseVersion(s string) *semver.Version {
	if s == "" {
		return nil
	}
	if v, err := semver.NewVersion(s); err == nil {
		return v
	}
	core, _, found := strings.Cut(s, "-")
	if !found {
		return nil
	}
	v, err := semver.NewVersion(core)
	if err != nil {
		return nil
	}
	return v
}

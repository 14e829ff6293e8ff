package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"

	"github.com/kubestellar/hub-console/pkg/models"
)

func newCmdClusters(o *Options) *cobra.Command {
	c := &cobra.Command{
		Use:     "clusters",
		Aliases: []string{"cluster"},
		Short:   "Cluster lifecycle commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	c.AddCommand(newCmdClustersList(o))
	c.AddCommand(newCmdClustersGet(o))
	c.AddCommand(newCmdClustersNodes(o))
	c.AddCommand(newCmdClustersCreate(o))
	c.AddCommand(newCmdClustersDetach(o))
	return c
}

func newCmdClustersList(o *Options) *cobra.Command {
	var overview bool
	var name string
	c := &cobra.Command{
		Use:   "list",
		Short: "List all clusters with their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			if overview {
				rows, err := model.GetAllClusters(cmd.Context(), name)
				if err != nil {
					return err
				}
				return o.render(rows, func() *table { return overviewTable(rows) })
			}
			views, err := model.GetClusters(cmd.Context(), name)
			if err != nil {
				return err
			}
			return o.render(views, func() *table { return clusterTable(views) })
		},
	}
	c.Flags().BoolVar(&overview, "overview", false, "Show overview rows derived from registration only")
	c.Flags().StringVar(&name, "name", "", "Only show the named cluster")
	return c
}

func newCmdClustersGet(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one cluster read directly from the hub",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			views, err := model.GetSingleCluster(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(views) == 0 {
				return fmt.Errorf("cluster %q not found", args[0])
			}
			return o.render(views[0], func() *table { return clusterTable(views) })
		},
	}
}

func newCmdClustersNodes(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes NAME",
		Short: "List the nodes of a cluster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			nodes, err := model.GetNodeList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return o.render(nodes, func() *table {
				t := newTable("Name", "Cluster", "Ready", "CPU", "Memory")
				for _, n := range nodes {
					t.addRow(n.Name, n.Cluster, nodeReady(n.NodeStatus),
						quantity(n.Capacity, corev1.ResourceCPU), quantity(n.Capacity, corev1.ResourceMemory))
				}
				return t
			})
		},
	}
}

func newCmdClustersCreate(o *Options) *cobra.Command {
	var filename string
	c := &cobra.Command{
		Use:   "create -f FILE",
		Short: "Create or import a cluster from manifests",
		Long:  "Create or import a cluster from a multi-document YAML or JSON file. Use -f - to read stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = o.In
			if filename != "-" {
				f, err := os.Open(filename)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			manifests, err := readManifests(r)
			if err != nil {
				return err
			}

			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			result, err := model.CreateCluster(cmd.Context(), manifests)
			if err != nil {
				return err
			}
			if err := o.render(result, func() *table { return resultTable(result) }); err != nil {
				return err
			}
			if !result.Succeeded() {
				for _, e := range result.Errors {
					fmt.Fprintf(o.ErrOut, "error: %s\n", e.Message)
				}
				return fmt.Errorf("create failed with %d error(s)", len(result.Errors))
			}
			return nil
		},
	}
	c.Flags().StringVarP(&filename, "filename", "f", "", "File holding the cluster manifests")
	_ = c.MarkFlagRequired("filename")
	return c
}

func newCmdClustersDetach(o *Options) *cobra.Command {
	var destroy bool
	c := &cobra.Command{
		Use:   "detach NAMESPACE NAME",
		Short: "Detach a cluster from the hub",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			resp, err := model.DetachCluster(cmd.Context(), args[0], args[1], destroy)
			if err != nil {
				return err
			}
			if resp.HasError() {
				return fmt.Errorf("detach failed: %d %s", resp.StatusCode(), resp.Message())
			}
			verb := "detached"
			if destroy {
				verb = "destroyed"
			}
			_, err = fmt.Fprintf(o.Out, "cluster %s %s\n", args[1], verb)
			return err
		},
	}
	c.Flags().BoolVar(&destroy, "destroy", false, "Also delete the cluster deployment and its machine pools")
	return c
}

func clusterTable(views []models.ClusterView) *table {
	t := newTable("Name", "Namespace", "Status", "Version", "Nodes", "Hive", "Managed")
	for _, v := range views {
		nodes := "-"
		if v.Nodes != nil {
			nodes = strconv.Itoa(*v.Nodes)
		}
		t.addRow(v.Metadata.Name, v.Metadata.Namespace, string(v.Status), v.K8sVersion, nodes,
			strconv.FormatBool(v.IsHive), strconv.FormatBool(v.IsManaged))
	}
	return t
}

func overviewTable(rows []models.ClusterOverview) *table {
	t := newTable("Name", "Namespace", "Status", "CPU", "Memory", "Console")
	for _, r := range rows {
		t.addRow(r.Metadata.Name, r.Metadata.Namespace, string(r.Status),
			quantity(r.Capacity, corev1.ResourceCPU), quantity(r.Capacity, corev1.ResourceMemory), orNone(r.ConsoleURL))
	}
	return t
}

func resultTable(result *models.CreateResult) *table {
	t := newTable("Kind", "Name", "Action")
	for _, ref := range result.Created {
		t.addRow(ref.Kind, ref.Name, "created")
	}
	for _, ref := range result.Updated {
		t.addRow(ref.Kind, ref.Name, "updated")
	}
	if result.ImportSecret != nil {
		t.addRow("Secret", result.ImportSecret.Name, "import")
	}
	return t
}

func quantity(list corev1.ResourceList, name corev1.ResourceName) string {
	q, ok := list[name]
	if !ok {
		return "-"
	}
	return q.String()
}

func nodeReady(n models.NodeStatus) string {
	for _, c := range n.Conditions {
		if c.Type == corev1.NodeReady {
			return string(c.Status)
		}
	}
	return string(corev1.ConditionUnknown)
}

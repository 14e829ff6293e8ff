package cli

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/cli-runtime/pkg/genericiooptions"
	"k8s.io/klog/v2"

	"github.com/kubestellar/hub-console/pkg/addon"
	"github.com/kubestellar/hub-console/pkg/cluster"
	"github.com/kubestellar/hub-console/pkg/config"
	"github.com/kubestellar/hub-console/pkg/k8s"
)

// ConnectFunc opens the hub connection the commands run against.
type ConnectFunc func(cfg config.Config) (k8s.Connector, k8s.EndpointResolver, error)

// Options holds the global flags and the loaded configuration
type Options struct {
	genericiooptions.IOStreams

	ConfigPath string
	Output     string
	KubeFlags  *genericclioptions.ConfigFlags

	connect ConnectFunc
	config  config.Config
}

// NewOptions returns options that connect with the kubeconfig flags
func NewOptions(streams genericiooptions.IOStreams) *Options {
	o := &Options{
		IOStreams:  streams,
		ConfigPath: config.DefaultPath(),
		Output:     outputTable,
		KubeFlags:  genericclioptions.NewConfigFlags(false),
	}
	o.connect = o.connectHub
	return o
}

// NewRootCmd returns the hubctl command tree
func NewRootCmd(o *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hubctl",
		Short: "Inspect and manage the clusters of a multicluster hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(o.Output); err != nil {
				return err
			}
			cfg, err := config.Load(o.ConfigPath)
			if err != nil {
				return err
			}
			o.config = cfg
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.ConfigPath, "config", o.ConfigPath, "Path to the hub-console config file")
	flags.StringVarP(&o.Output, "output", "o", o.Output, "Output format (table|json|yaml)")
	o.KubeFlags.AddFlags(flags)

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	flags.AddGoFlagSet(klogFlags)

	cmd.SetIn(o.In)
	cmd.SetOut(o.Out)
	cmd.SetErr(o.ErrOut)

	cmd.AddCommand(newCmdClusters(o))
	cmd.AddCommand(newCmdAddons(o))
	cmd.AddCommand(newCmdImageSets(o))
	cmd.AddCommand(newCmdUsage(o))
	return cmd
}

// connectHub builds a HubClient from the kubeconfig flags, falling back to
// the kubeconfig and context named in the config file.
func (o *Options) connectHub(cfg config.Config) (k8s.Connector, k8s.EndpointResolver, error) {
	if o.KubeFlags.KubeConfig != nil && *o.KubeFlags.KubeConfig == "" && cfg.Kubeconfig != "" {
		*o.KubeFlags.KubeConfig = cfg.Kubeconfig
	}
	if o.KubeFlags.Context != nil && *o.KubeFlags.Context == "" && cfg.Context != "" {
		*o.KubeFlags.Context = cfg.Context
	}
	restConfig, err := o.KubeFlags.ToRESTConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	client, err := k8s.NewHubClientForConfig(restConfig)
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}

func (o *Options) clusterModel() (*cluster.Model, error) {
	conn, resolver, err := o.connect(o.config)
	if err != nil {
		return nil, err
	}
	return cluster.NewModel(conn,
		cluster.WithEndpointResolver(resolver),
		cluster.WithClusterNamespaces(o.config.ClusterNamespaces...),
		cluster.WithImportPolling(o.config.ImportPollInterval, o.config.ImportPollAttempts),
	), nil
}

func (o *Options) addonResolver() (*addon.Resolver, error) {
	conn, _, err := o.connect(o.config)
	if err != nil {
		return nil, err
	}
	return addon.NewResolver(conn), nil
}

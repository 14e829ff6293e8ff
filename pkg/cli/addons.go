package cli

import (
	"github.com/spf13/cobra"
)

func newCmdAddons(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "addons NAMESPACE",
		Short: "List the add-ons of the cluster in NAMESPACE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := o.addonResolver()
			if err != nil {
				return err
			}
			addons, err := resolver.GetClusterAddons(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return o.render(addons, func() *table {
				t := newTable("Name", "Status", "Resource", "Description")
				for _, a := range addons {
					resource := a.AddOnResource.Resource
					if a.AddOnResource.Group != "" {
						resource += "." + a.AddOnResource.Group
					}
					t.addRow(a.Metadata.Name, a.Status.Type, orNone(resource), orNone(a.AddOnResource.Description))
				}
				return t
			})
		},
	}
}

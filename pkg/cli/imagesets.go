package cli

import (
	"github.com/spf13/cobra"
)

func newCmdImageSets(o *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "imagesets",
		Aliases: []string{"clusterimagesets"},
		Short:   "List installable release images, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := o.clusterModel()
			if err != nil {
				return err
			}
			sets, err := model.GetClusterImageSets(cmd.Context())
			if err != nil {
				return err
			}
			return o.render(sets, func() *table {
				t := newTable("Name", "Release Image", "Channel", "Visible")
				for _, s := range sets {
					t.addRow(s.Name, s.ReleaseImage, orNone(s.Channel), orNone(s.Visible))
				}
				return t
			})
		},
	}
}

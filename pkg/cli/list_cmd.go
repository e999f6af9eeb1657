package cli

import (
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewListCmd(deps *Deps) *cobra.Command {
	var opts admin.ListOptions

	cmd := &cobra.Command{
		Use:               "list [CATEGORY]",
		Short:             "print resolved items of one category, or of every category",
		Aliases:           []string{"ls"},
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeCategories(deps),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				opts.Category = args[0]
			}
			out, err := a.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if opts.Category != "" {
				return writeJSON(cmd.OutOrStdout(), out[opts.Category])
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	return cmd
}

func NewItemsCmd(deps *Deps) *cobra.Command {
	var opts admin.ItemsOptions

	cmd := &cobra.Command{
		Use:   "items MEDIA_TYPE",
		Short: "print every stored item of a media type, filed or not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			opts.MediaType = args[0]
			items, err := a.Items(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), items)
		},
	}
	return cmd
}

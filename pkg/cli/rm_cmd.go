package cli

import (
	"fmt"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewRemoveCmd(deps *Deps) *cobra.Command {
	var opts admin.RemoveOptions

	cmd := &cobra.Command{
		Use:     "rm ID",
		Short:   "delete an item, unfile it and remove its hosted assets",
		Aliases: []string{"remove"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			opts.ID = args[0]
			res, err := a.Remove(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if res.Category != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s from %s\n", res.Item.ID, res.Category)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", res.Item.ID)
			}
			for _, u := range res.Deleted {
				fmt.Fprintf(cmd.OutOrStdout(), "removed asset %s\n", u)
			}
			if res.Warning != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", res.Warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Category, "category", "", "category the item is filed in (looked up when empty)")
	_ = cmd.RegisterFlagCompletionFunc("category", completeCategories(deps))
	return cmd
}

package cli

import (
	"fmt"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewGetCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "print one item by id or legacy id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			it, err := a.Get(cmd.Context(), admin.GetOptions{ID: args[0]})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), it)
		},
	}
}

func NewFindCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "find FIELD VALUE",
		Short: "print the first item whose field equals value",
		Long: `Print the first item whose field equals VALUE. Multilingual fields
match any language.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			it, err := a.Find(cmd.Context(), admin.FindOptions{Field: args[0], Value: args[1]})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), it)
		},
	}
}

func NewWhereCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "where ID",
		Short: "print the category an item is filed in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			cat, ok, err := a.Where(cmd.Context(), admin.WhereOptions{ID: args[0]})
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("item %s is not filed in any category", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), cat)
			return nil
		},
	}
}

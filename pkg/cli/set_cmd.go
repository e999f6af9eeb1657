package cli

import (
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewSetCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "set ID KEY=VALUE...",
		Short: "update fields of an item",
		Long: `Update fields of an item. Values that parse as JSON are stored as
JSON, anything else as a string. An empty value clears the field.
Use title.fr=... to change one language of a multilingual field.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			it, err := a.Set(cmd.Context(), admin.SetOptions{ID: args[0], Assignments: args[1:]})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), it)
		},
	}
}

package cli

import (
	"fmt"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewMoveCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mv ID [FROM] TO",
		Short: "refile an item in another category of the same media type",
		Long: `Refile an item in another category of the same media type. FROM is
looked up when omitted.`,
		Aliases:           []string{"move"},
		Args:              cobra.RangeArgs(2, 3),
		ValidArgsFunction: completeCategories(deps),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			opts := admin.MoveOptions{ID: args[0], To: args[len(args)-1]}
			if len(args) == 3 {
				opts.From = args[1]
			}
			from, err := a.Move(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s from %s to %s\n", opts.ID, from, opts.To)
			return nil
		},
	}
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"
)

func NewUnlockCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "remove document locks left by an interrupted run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			return a.ClearLocks(cmd.Context())
		},
	}
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(deps *Deps) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "write a starter portfolio.yaml and data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, admin.DefaultConfigFile)
			exists, err := internal.FileExists(path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := admin.StarterConfig()
			if err := cfg.Write(path); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Join(dir, cfg.DataDir), 0o755); err != nil {
				return fmt.Errorf("create data directory: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config")
	return cmd
}

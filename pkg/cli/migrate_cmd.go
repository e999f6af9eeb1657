package cli

import (
	"fmt"
	"sort"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewMigrateCmd(deps *Deps) *cobra.Command {
	var (
		opts   admin.MigrateOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "convert per-category item documents to partitions and ref lists",
		Long: `Convert legacy per-category item documents into one document per
media type plus an ordered id list per category. Existing documents are
copied to a timestamped backup directory first. Running it on data that is
already converted does nothing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			rep, err := a.Migrate(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}

			out := cmd.OutOrStdout()
			if rep.AlreadyMigrated {
				fmt.Fprintln(out, "already migrated, nothing to do")
				return nil
			}
			for _, k := range sortedKeys(rep.Items) {
				fmt.Fprintf(out, "media type %s: %d item(s)\n", k, rep.Items[k])
			}
			for _, k := range sortedKeys(rep.Refs) {
				fmt.Fprintf(out, "category %s: %d ref(s)\n", k, rep.Refs[k])
			}
			for _, s := range rep.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: skipped %s\n", s)
			}
			switch {
			case rep.DryRun:
				fmt.Fprintln(out, "dry run, nothing written")
			default:
				fmt.Fprintf(out, "backup written to %s\n", rep.BackupDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

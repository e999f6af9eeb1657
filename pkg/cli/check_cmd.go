package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned by check when issues were found.
var ErrCheckFailed = errors.New("check found issues")

func NewCheckCmd(deps *Deps) *cobra.Command {
	var (
		watch  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "report dangling refs, duplicates and orphaned items",
		Long: `Report referential problems between items and categories: refs to
missing items, refs to items of another media type, duplicate refs, items
filed in several categories of one media type and items filed nowhere.

With --watch the report is printed again whenever a data document changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			report := func(rep *content.CheckReport) error {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), rep)
				}
				printReport(cmd.OutOrStdout(), rep)
				return nil
			}

			if watch {
				err := a.WatchCheck(cmd.Context(), admin.CheckWatchOptions{OnReport: report})
				if errors.Is(err, cmd.Context().Err()) {
					return nil
				}
				return err
			}

			rep, err := a.Check(cmd.Context())
			if err != nil {
				return err
			}
			if err := report(rep); err != nil {
				return err
			}
			if !rep.OK() {
				return fmt.Errorf("%w: %d issue(s)", ErrCheckFailed, len(rep.Issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run whenever the data directory changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, rep *content.CheckReport) {
	for _, is := range rep.Issues {
		if is.Category != "" {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", is.Kind, is.Category, is.ItemID, is.Message)
		} else {
			fmt.Fprintf(w, "%s\t-\t%s\t%s\n", is.Kind, is.ItemID, is.Message)
		}
	}
	if rep.OK() {
		fmt.Fprintln(w, "ok")
	}
}

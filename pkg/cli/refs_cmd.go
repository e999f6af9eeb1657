package cli

import (
	"fmt"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewRefsCmd(deps *Deps) *cobra.Command {
	var (
		set   string
		clear bool
	)

	cmd := &cobra.Command{
		Use:               "refs CATEGORY",
		Short:             "print or replace the ordered id list of a category",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeCategories(deps),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			opts := admin.RefsOptions{Category: args[0]}
			switch {
			case clear && set != "":
				return fmt.Errorf("--set and --clear are mutually exclusive")
			case clear:
				opts.Set = []string{}
			case set != "":
				for _, id := range strings.Split(set, ",") {
					if id = strings.TrimSpace(id); id != "" {
						opts.Set = append(opts.Set, id)
					}
				}
			}
			refs, err := a.Refs(cmd.Context(), opts)
			if err != nil {
				return err
			}
			for _, id := range refs {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&set, "set", "", "comma separated ids replacing the list")
	cmd.Flags().BoolVar(&clear, "clear", false, "empty the list")
	return cmd
}

package cli

import (
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/spf13/cobra"
)

func NewAddCmd(deps *Deps) *cobra.Command {
	var opts admin.AddOptions

	cmd := &cobra.Command{
		Use:   "add CATEGORY",
		Short: "save an already hosted media URL as a new item",
		Long: `Create an item from an already hosted URL and file it in CATEGORY.
Text values are written once per configured language.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeCategories(deps),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Admin(cmd.Context())
			if err != nil {
				return err
			}
			opts.Category = args[0]
			it, err := a.Add(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), it)
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "title of the work")
	cmd.Flags().StringVar(&opts.URL, "url", "", "hosted media URL")
	cmd.Flags().StringSliceVar(&opts.Gallery, "gallery", nil, "additional image URLs")
	cmd.Flags().StringVar(&opts.Medium, "medium", "", "medium (art)")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "genre (music, video)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description of the work")
	cmd.Flags().StringVar(&opts.Created, "created", "", "creation date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

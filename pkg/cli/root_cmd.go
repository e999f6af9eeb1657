package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
	"github.com/spf13/cobra"
)

type Deps struct {
	ConfigPath string
	LogFile    string
	LogLevel   string
	LogJSON    bool

	// AdminOptions seeds admin.New. Tests set Repo, Cleaner and Clock here.
	AdminOptions admin.Options

	admin    *admin.Admin
	config   *admin.Config
	shutdown []func() error
}

// Config loads the configuration on first use.
func (d *Deps) Config(ctx context.Context) (*admin.Config, error) {
	if d.config != nil {
		return d.config, nil
	}
	if d.AdminOptions.Config != nil {
		d.config = d.AdminOptions.Config
		return d.config, nil
	}
	path, err := admin.ResolveConfigPath(d.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := admin.LoadConfig(ctx, path)
	if err != nil {
		return nil, err
	}
	d.config = cfg
	return cfg, nil
}

// Admin opens the configured backend on first use.
func (d *Deps) Admin(ctx context.Context) (*admin.Admin, error) {
	if d.admin != nil {
		return d.admin, nil
	}
	cfg, err := d.Config(ctx)
	if err != nil {
		return nil, err
	}
	opts := d.AdminOptions
	opts.Config = cfg
	a, err := admin.New(ctx, opts)
	if err != nil {
		return nil, err
	}
	d.admin = a
	d.shutdown = append(d.shutdown, a.Close)
	return a, nil
}

func (d *Deps) close() error {
	var errs []error
	for i := len(d.shutdown) - 1; i >= 0; i-- {
		errs = append(errs, d.shutdown[i]())
	}
	d.shutdown = nil
	return errors.Join(errs...)
}

// NewRootCmd builds the portfolio command tree. A logger already on the
// command context is kept, so tests can capture log output.
func NewRootCmd(deps *Deps) *cobra.Command {
	if deps == nil {
		deps = &Deps{}
	}

	cmd := &cobra.Command{
		Use:           "portfolio",
		Short:         "manage portfolio items and categories",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if log.HasLogger(ctx) && deps.LogFile == "" {
				return nil
			}

			var out io.Writer = cmd.ErrOrStderr()
			if deps.LogFile != "" {
				f, err := os.OpenFile(deps.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err != nil {
					return err
				}
				out = f
			}
			lg, shutdown, err := log.NewLogger(log.LoggerConfig{
				Out:     out,
				Level:   log.ParseLevel(deps.LogLevel),
				JSON:    deps.LogJSON,
				Version: Version,
			})
			if err != nil {
				return err
			}
			deps.shutdown = append(deps.shutdown, shutdown)
			cmd.SetContext(log.ContextWithLogger(ctx, lg))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&deps.LogFile, "log-file", "", "write logs to file (default stderr)")
	cmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "warn", "minimum log level")
	cmd.PersistentFlags().BoolVar(&deps.LogJSON, "log-json", false, "output logs as JSON")
	cmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", "", "path to portfolio.yaml or a content root directory")

	cmd.AddCommand(
		NewListCmd(deps),
		NewItemsCmd(deps),
		NewGetCmd(deps),
		NewFindCmd(deps),
		NewWhereCmd(deps),
		NewAddCmd(deps),
		NewSetCmd(deps),
		NewRemoveCmd(deps),
		NewMoveCmd(deps),
		NewRefsCmd(deps),
		NewMigrateCmd(deps),
		NewCheckCmd(deps),
		NewInitCmd(deps),
		NewConfigCmd(deps),
		NewUnlockCmd(deps),
	)
	return cmd
}

// writeJSON prints v as indented JSON without HTML escaping.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// completeCategories offers configured category ids.
func completeCategories(deps *Deps) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := deps.Config(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ids := make([]string, 0, len(cfg.Categories))
		for _, c := range cfg.Categories {
			ids = append(ids, c.ID)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}

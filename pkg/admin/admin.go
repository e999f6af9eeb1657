// Package admin is the application layer behind the portfolio command line.
// It loads configuration, opens the configured backend and exposes one
// method per admin operation.
package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/assets"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

type Admin struct {
	Config    *Config
	Catalog   *content.Catalog
	Portfolio *content.Portfolio
	Clock     internal.Clock

	closeRepo func() error
}

type Options struct {
	Config *Config

	// Repo overrides the backend named by Config.
	Repo content.Repository

	// Cleaner overrides the asset providers named by Config.
	Cleaner content.AssetCleaner

	Clock internal.Clock
}

// New opens the configured backend and asset providers.
func New(ctx context.Context, opts Options) (*Admin, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	catalog, err := opts.Config.Catalog()
	if err != nil {
		return nil, err
	}
	clock := internal.ClockOrReal(opts.Clock)

	repo := opts.Repo
	closeRepo := func() error { return nil }
	if repo == nil {
		repo, closeRepo, err = OpenRepository(ctx, opts.Config, catalog, clock)
		if err != nil {
			return nil, err
		}
	}

	cleaner := opts.Cleaner
	if cleaner == nil {
		m, err := NewAssetManager(opts.Config)
		if err != nil {
			_ = closeRepo()
			return nil, err
		}
		cleaner = m
	}

	p, err := content.NewPortfolio(content.PortfolioOptions{
		Repo:    repo,
		Catalog: catalog,
		Cleaner: cleaner,
		Clock:   clock,
	})
	if err != nil {
		_ = closeRepo()
		return nil, err
	}
	return &Admin{
		Config:    opts.Config,
		Catalog:   catalog,
		Portfolio: p,
		Clock:     clock,
		closeRepo: closeRepo,
	}, nil
}

// Close releases the backend.
func (a *Admin) Close() error {
	if a.closeRepo == nil {
		return nil
	}
	return a.closeRepo()
}

func (a *Admin) repo() content.Repository { return a.Portfolio.Repo() }

// OpenRepository returns the adapter selected by cfg.Backend and a function
// that releases it.
func OpenRepository(ctx context.Context, cfg *Config, catalog *content.Catalog, clock internal.Clock) (content.Repository, func() error, error) {
	lg := log.FromContext(ctx)
	switch cfg.Backend {
	case BackendFile, "":
		lg.Debug("using file backend", "dataDir", cfg.DataDir)
		return content.NewFsRepo(cfg.DataDir, catalog), func() error { return nil }, nil
	case BackendSQL:
		r, err := content.OpenSQLRepo(ctx, cfg.SQL.Driver, cfg.SQL.DSN, catalog)
		if err != nil {
			return nil, nil, err
		}
		r.Clock = internal.ClockOrReal(clock)
		lg.Debug("using sql backend", "driver", cfg.SQL.Driver)
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q: %w", cfg.Backend, content.ErrInvalid)
	}
}

// NewAssetManager builds a manager with every provider the config enables.
// Providers are consulted in the order github, cloudinary, s3.
func NewAssetManager(cfg *Config) (*assets.Manager, error) {
	var providers []assets.Provider
	if gh := cfg.Assets.GitHub; gh != nil && gh.Repo != "" {
		p, err := assets.NewGitHubReleases(assets.GitHubConfig{
			Repo:       gh.Repo,
			Token:      gh.Token,
			ReleaseTag: gh.ReleaseTag,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if cl := cfg.Assets.Cloudinary; cl != nil && cl.CloudName != "" {
		p, err := assets.NewCloudinary(assets.CloudinaryConfig{
			CloudName: cl.CloudName,
			APIKey:    cl.APIKey,
			APISecret: cl.APISecret,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if s := cfg.Assets.S3; s != nil && s.Endpoint != "" {
		p, err := assets.NewS3(assets.S3Config{
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Bucket:    s.Bucket,
			Region:    s.Region,
			UseSSL:    s.UseSSL,
			PublicURL: s.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return assets.NewManager(providers...), nil
}

// MigrateOptions controls Admin.Migrate.
type MigrateOptions struct {
	DryRun bool
}

// Migrate converts legacy per-category documents in the data directory.
// Only the file backend keeps documents on disk.
func (a *Admin) Migrate(ctx context.Context, opts MigrateOptions) (*content.MigrateReport, error) {
	if a.Config.Backend != BackendFile {
		return nil, fmt.Errorf("migrate needs the file backend, not %q: %w", a.Config.Backend, content.ErrInvalid)
	}
	return content.Migrate(ctx, content.MigrateOptions{
		Root:       a.Config.DataDir,
		BackupRoot: a.Config.BackupDir,
		Catalog:    a.Catalog,
		Clock:      a.Clock,
		DryRun:     opts.DryRun,
	})
}

// ClearLocks removes document lock files left by an interrupted process.
// It is a no-op for the sql backend.
func (a *Admin) ClearLocks(ctx context.Context) error {
	fs, ok := a.repo().(*content.FsRepo)
	if !ok {
		return nil
	}
	log.FromContext(ctx).Info("clearing document locks", "dataDir", fs.Root)
	return fs.ClearLocks()
}

// Check reports referential problems between items and categories.
func (a *Admin) Check(ctx context.Context) (*content.CheckReport, error) {
	return a.Portfolio.Check(ctx)
}

var errUsage = errors.New("usage")

// IsUsageError reports whether err came from missing or malformed operation
// arguments.
func IsUsageError(err error) bool { return errors.Is(err, errUsage) }

func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

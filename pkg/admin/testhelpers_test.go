package admin_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/assets"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `backend: file
dataDir: data
languages: [en, fr]
mediaTypes:
  - id: image
    supportsGallery: true
  - id: audio
categories:
  - id: painting
    mediaType: image
  - id: drawing
    mediaType: image
  - id: music
    mediaType: audio
`

// Fixture owns a temporary content root with a portfolio.yaml.
type Fixture struct {
	t       *testing.T
	ctx     context.Context
	Logs    *log.TestHandler
	Clock   *internal.FixedClock
	Root    string
	Cleaner *fakeCleaner
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	lg, th := log.NewTestLogger(t, slog.LevelDebug)
	return &Fixture{
		t:       t,
		ctx:     log.ContextWithLogger(context.Background(), lg),
		Logs:    th,
		Clock:   internal.NewFixedClock(time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)),
		Root:    t.TempDir(),
		Cleaner: &fakeCleaner{fail: map[string]bool{}},
	}
}

func (f *Fixture) Context() context.Context { return f.ctx }

// WriteFile writes rel under the fixture root.
func (f *Fixture) WriteFile(rel, body string) string {
	f.t.Helper()
	path := filepath.Join(f.Root, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func (f *Fixture) LoadConfig(body string) *admin.Config {
	f.t.Helper()
	path := f.WriteFile("portfolio.yaml", body)
	cfg, err := admin.LoadConfig(f.ctx, path)
	require.NoError(f.t, err)
	return cfg
}

// Admin opens an admin over the default test config.
func (f *Fixture) Admin() *admin.Admin {
	f.t.Helper()
	return f.AdminWith(f.LoadConfig(testConfigYAML))
}

func (f *Fixture) AdminWith(cfg *admin.Config) *admin.Admin {
	f.t.Helper()
	a, err := admin.New(f.ctx, admin.Options{Config: cfg, Cleaner: f.Cleaner, Clock: f.Clock})
	require.NoError(f.t, err)
	f.t.Cleanup(func() { _ = a.Close() })
	return a
}

type fakeCleaner struct {
	fail map[string]bool
	seen []string
}

func (c *fakeCleaner) DeleteAll(_ context.Context, urls []string) assets.Report {
	var rep assets.Report
	for _, u := range urls {
		c.seen = append(c.seen, u)
		if c.fail[u] {
			rep.Failed = append(rep.Failed, assets.Failure{URL: u, Provider: "fake", Err: errors.New("refused")})
			continue
		}
		rep.Deleted = append(rep.Deleted, u)
	}
	return rep
}

package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/assets"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/cli"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
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
assets:
  github:
    repo: someone/site
    token: ghp_secret
`

// Fixture runs the command line against a temporary portfolio.yaml.
type Fixture struct {
	t       *testing.T
	ctx     context.Context
	Logs    *log.TestHandler
	Clock   *internal.FixedClock
	Root    string
	Config  string
	Cleaner *fakeCleaner
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	lg, th := log.NewTestLogger(t, slog.LevelDebug)
	root := t.TempDir()
	cfg := filepath.Join(root, admin.DefaultConfigFile)
	require.NoError(t, os.WriteFile(cfg, []byte(testConfigYAML), 0o644))
	return &Fixture{
		t:       t,
		ctx:     log.ContextWithLogger(context.Background(), lg),
		Logs:    th,
		Clock:   internal.NewFixedClock(time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)),
		Root:    root,
		Config:  cfg,
		Cleaner: &fakeCleaner{fail: map[string]bool{}},
	}
}

// Result is the outcome of one command line run.
type Result struct {
	Code   int
	Err    error
	Stdout string
	Stderr string
}

// Run executes args with --config pointing at the fixture config.
func (f *Fixture) Run(args ...string) Result {
	f.t.Helper()
	return f.RunRaw(append([]string{"--config", f.Config}, args...)...)
}

// RunRaw executes args as given.
func (f *Fixture) RunRaw(args ...string) Result {
	f.t.Helper()
	var out, errOut bytes.Buffer
	deps := &cli.Deps{AdminOptions: admin.Options{Cleaner: f.Cleaner, Clock: f.Clock}}
	code, err := cli.RunWithDeps(f.ctx, cli.Streams{
		In:  strings.NewReader(""),
		Out: &out,
		Err: &errOut,
	}, deps, args)
	return Result{Code: code, Err: err, Stdout: out.String(), Stderr: errOut.String()}
}

// MustRun fails the test unless the command exits 0.
func (f *Fixture) MustRun(args ...string) string {
	f.t.Helper()
	res := f.Run(args...)
	require.NoError(f.t, res.Err, "stderr: %s", res.Stderr)
	require.Equal(f.t, 0, res.Code)
	return res.Stdout
}

// Add creates an item through the command line and returns it.
func (f *Fixture) Add(category, title string, extra ...string) content.Item {
	f.t.Helper()
	out := f.MustRun(append([]string{"add", category, "--title", title}, extra...)...)
	var it content.Item
	require.NoError(f.t, json.Unmarshal([]byte(out), &it))
	require.NotEmpty(f.t, it.ID)
	return it
}

// WriteData writes a document under the data directory.
func (f *Fixture) WriteData(name, body string) {
	f.t.Helper()
	path := filepath.Join(f.Root, "data", name)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(body), 0o644))
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

package content_test

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
	"github.com/stretchr/testify/require"
)

// Fixture bundles what most tests need: a context carrying a capturing
// logger, a fixed clock and a small catalog.
type Fixture struct {
	t       *testing.T
	ctx     context.Context
	Logs    *log.TestHandler
	Clock   *internal.FixedClock
	Catalog *content.Catalog
}

func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	lg, th := log.NewTestLogger(t, slog.LevelDebug)
	return &Fixture{
		t:       t,
		ctx:     log.ContextWithLogger(context.Background(), lg),
		Logs:    th,
		Clock:   internal.NewFixedClock(time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)),
		Catalog: testCatalog(t),
	}
}

func (f *Fixture) Context() context.Context { return f.ctx }

// testCatalog has two image categories and one audio category.
func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	cat, err := content.NewCatalog(
		[]content.MediaType{
			{ID: "image", SupportsGallery: true},
			{ID: "audio"},
		},
		[]content.Category{
			{ID: "painting", MediaType: "image"},
			{ID: "drawing", MediaType: "image"},
			{ID: "music", MediaType: "audio"},
		},
	)
	require.NoError(t, err)
	return cat
}

func (f *Fixture) NewFsRepo() (*content.FsRepo, string) {
	f.t.Helper()
	root := filepath.Join(f.t.TempDir(), "data")
	r := content.NewFsRepo(root, f.Catalog)
	r.LockTimeout = 2 * time.Second
	r.LockInterval = 5 * time.Millisecond
	return r, root
}

func (f *Fixture) NewSQLRepo() *content.SQLRepo {
	f.t.Helper()
	dsn := filepath.Join(f.t.TempDir(), "content.db")
	r, err := content.OpenSQLRepo(f.ctx, "sqlite", dsn, f.Catalog)
	require.NoError(f.t, err)
	r.Clock = f.Clock
	f.t.Cleanup(func() { _ = r.Close() })
	return r
}

type repoFactory func(f *Fixture) content.Repository

// adapters lists every Repository implementation the contract tests run
// against.
var adapters = map[string]repoFactory{
	"fs": func(f *Fixture) content.Repository {
		r, _ := f.NewFsRepo()
		return r
	},
	"sqlite": func(f *Fixture) content.Repository {
		return f.NewSQLRepo()
	},
}

// forEachAdapter runs fn once per adapter as parallel subtests.
func forEachAdapter(t *testing.T, fn func(t *testing.T, f *Fixture, repo content.Repository)) {
	t.Helper()
	for name, factory := range adapters {
		factory := factory
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := NewFixture(t)
			fn(t, f, factory(f))
		})
	}
}

func mustCreate(t *testing.T, ctx context.Context, repo content.Repository, mediaType string, it content.Item) content.Item {
	t.Helper()
	created, err := repo.CreateItem(ctx, mediaType, it)
	require.NoError(t, err)
	return created
}

func mustAddRef(t *testing.T, ctx context.Context, repo content.Repository, id, category string) {
	t.Helper()
	_, err := repo.AddRef(ctx, id, category)
	require.NoError(t, err)
}

func ids(items []content.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

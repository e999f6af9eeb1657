package admin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/admin"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/stretchr/testify/require"
)

func TestWatchPaths_DebouncesDocumentChanges(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(f.Context())
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- admin.WatchPaths(ctx, admin.WatchOptions{
			Dirs:     []string{dir},
			Debounce: 50 * time.Millisecond,
			OnChange: func(context.Context) error {
				calls <- struct{}{}
				return nil
			},
		})
	}()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "painting.json.lock"), []byte("x"), 0o644))

	select {
	case <-calls:
		t.Fatal("non-document change triggered the callback")
	case <-time.After(300 * time.Millisecond):
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "painting.json"), []byte("[]"), 0o644))
	}
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("callback not called after document change")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatchPaths_RequiresCallbackAndDirs(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	require.Error(t, admin.WatchPaths(f.Context(), admin.WatchOptions{Dirs: []string{t.TempDir()}}))
	require.Error(t, admin.WatchPaths(f.Context(), admin.WatchOptions{OnChange: func(context.Context) error { return nil }}))
}

func TestAdmin_WatchCheckReportsInitialAndChanged(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	a := f.Admin()

	ctx, cancel := context.WithCancel(f.Context())
	defer cancel()

	reports := make(chan *content.CheckReport, 10)
	done := make(chan error, 1)
	go func() {
		done <- a.WatchCheck(ctx, admin.CheckWatchOptions{
			Debounce: 50 * time.Millisecond,
			OnReport: func(r *content.CheckReport) error {
				reports <- r
				return nil
			},
		})
	}()

	select {
	case r := <-reports:
		require.True(t, r.OK())
	case <-time.After(5 * time.Second):
		t.Fatal("no initial report")
	}

	time.Sleep(100 * time.Millisecond)
	f.WriteFile("data/painting.json", `["ghost"]`)

	select {
	case r := <-reports:
		require.Len(t, r.ByKind(content.IssueDanglingRef), 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no report after change")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

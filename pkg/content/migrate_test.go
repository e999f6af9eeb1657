package content_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v))
}

func migrateOpts(f *Fixture, root string) content.MigrateOptions {
	return content.MigrateOptions{Root: root, Catalog: f.Catalog, Clock: f.Clock}
}

func TestMigrate_ObjectsBecomeItemsAndRefs(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	root := filepath.Join(t.TempDir(), "data")
	writeDoc(t, root, "painting.json", `[{"title": "A"}, {"title": {"en": "B", "fr": "Bé"}}]`)

	rep, err := content.Migrate(f.Context(), migrateOpts(f, root))
	require.NoError(t, err)
	require.False(t, rep.AlreadyMigrated)
	require.Equal(t, 2, rep.Items["image"])
	require.Equal(t, 0, rep.Items["audio"])
	require.Equal(t, 2, rep.Refs["painting"])
	require.ElementsMatch(t, []string{"drawing", "music"}, rep.Skipped)

	var items []content.Item
	readJSON(t, filepath.Join(root, "image.json"), &items)
	require.Len(t, items, 2)
	require.NotEqual(t, items[0].ID, items[1].ID)
	for _, it := range items {
		require.Len(t, it.ID, 36)
		require.Equal(t, "image", it.MediaType)
		require.Empty(t, it.LegacyID)
	}
	require.Equal(t, "Bé", items[1].Title.Get("fr"))

	var refs []string
	readJSON(t, filepath.Join(root, "painting.json"), &refs)
	require.Equal(t, []string{items[0].ID, items[1].ID}, refs)

	var audio []content.Item
	readJSON(t, filepath.Join(root, "audio.json"), &audio)
	require.Empty(t, audio)

	var drawing []string
	readJSON(t, filepath.Join(root, "drawing.json"), &drawing)
	require.Empty(t, drawing)

	backup := filepath.Join(filepath.Dir(root), "backups", "backup-20250601-103000")
	require.Equal(t, backup, rep.BackupDir)
	orig, err := os.ReadFile(filepath.Join(backup, "painting.json"))
	require.NoError(t, err)
	require.Contains(t, string(orig), `"title": "A"`)

	// The migrated data reads back through the file adapter.
	repo := content.NewFsRepo(root, f.Catalog)
	resolved, err := repo.GetResolvedItems(f.Context(), "painting")
	require.NoError(t, err)
	require.Equal(t, refs, ids(resolved))
}

func TestMigrate_AlreadyMigratedIsNoop(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	root := filepath.Join(t.TempDir(), "data")
	writeDoc(t, root, "painting.json", `["u1"]`)
	writeDoc(t, root, "image.json", `[{"id": "u1"}]`)

	rep, err := content.Migrate(f.Context(), migrateOpts(f, root))
	require.NoError(t, err)
	require.True(t, rep.AlreadyMigrated)
	require.Empty(t, rep.BackupDir)

	_, err = os.Stat(filepath.Join(filepath.Dir(root), "backups"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "audio.json"))
	require.True(t, os.IsNotExist(err))
}

func TestMigrate_LegacyIDsAndWrappedDocuments(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	root := filepath.Join(t.TempDir(), "data")
	writeDoc(t, root, "painting.json", `{"items": [{"id": 7, "title": "Seven", "pile": true}, "keep-me", 12]}`)
	writeDoc(t, root, "drawing.json", `[{"id": "7", "title": "Seven again"}]`)
	writeDoc(t, root, "music.json", `[{"id": "song-1", "title": "Tune"}]`)

	rep, err := content.Migrate(f.Context(), migrateOpts(f, root))
	require.NoError(t, err)
	require.Equal(t, []string{"painting[2]"}, rep.Skipped)
	require.Equal(t, 1, rep.Items["image"], "entries sharing a legacy id collapse")
	require.Equal(t, 1, rep.Items["audio"])

	var images []content.Item
	readJSON(t, filepath.Join(root, "image.json"), &images)
	require.Len(t, images, 1)
	require.Equal(t, "7", images[0].LegacyID)
	require.NotEqual(t, "7", images[0].ID)
	require.JSONEq(t, "true", string(images[0].Extra["pile"]))

	var painting, drawing []string
	readJSON(t, filepath.Join(root, "painting.json"), &painting)
	readJSON(t, filepath.Join(root, "drawing.json"), &drawing)
	require.Equal(t, []string{images[0].ID, "keep-me"}, painting)
	require.Equal(t, []string{images[0].ID}, drawing)

	var songs []content.Item
	readJSON(t, filepath.Join(root, "audio.json"), &songs)
	require.Equal(t, "song-1", songs[0].LegacyID)
	require.Equal(t, "audio", songs[0].MediaType)
}

func TestMigrate_DryRunWritesNothing(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	root := filepath.Join(t.TempDir(), "data")
	body := `[{"title": "A"}]`
	writeDoc(t, root, "music.json", body)

	opts := migrateOpts(f, root)
	opts.DryRun = true
	rep, err := content.Migrate(f.Context(), opts)
	require.NoError(t, err)
	require.True(t, rep.DryRun)
	require.Equal(t, 1, rep.Items["audio"])
	require.Empty(t, rep.BackupDir)

	data, err := os.ReadFile(filepath.Join(root, "music.json"))
	require.NoError(t, err)
	require.Equal(t, body, string(data))
	_, err = os.Stat(filepath.Join(root, "audio.json"))
	require.True(t, os.IsNotExist(err))
}

func TestMigrate_CustomBackupRootAndDataFile(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	cat, err := content.NewCatalog(
		[]content.MediaType{{ID: "image"}},
		[]content.Category{{ID: "painting", MediaType: "image", DataFile: "data/paintings.json"}},
	)
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "data")
	writeDoc(t, root, "paintings.json", `[{"title": "A"}]`)
	backups := filepath.Join(t.TempDir(), "elsewhere")

	rep, err := content.Migrate(f.Context(), content.MigrateOptions{
		Root:       root,
		BackupRoot: backups,
		Catalog:    cat,
		Clock:      f.Clock,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(backups, "backup-20250601-103000"), rep.BackupDir)
	require.FileExists(t, filepath.Join(rep.BackupDir, "paintings.json"))

	var refs []string
	readJSON(t, filepath.Join(root, "painting.json"), &refs)
	require.Len(t, refs, 1)
}

func TestMigrate_RerunWithSeparateDataFileIsNoop(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	cat, err := content.NewCatalog(
		[]content.MediaType{{ID: "image"}},
		[]content.Category{{ID: "painting", MediaType: "image", DataFile: "data/paintings.json"}},
	)
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "data")
	writeDoc(t, root, "paintings.json", `[{"title": "A"}, {"title": "B"}]`)
	opts := content.MigrateOptions{Root: root, Catalog: cat, Clock: f.Clock}

	first, err := content.Migrate(f.Context(), opts)
	require.NoError(t, err)
	require.False(t, first.AlreadyMigrated)
	require.Equal(t, 2, first.Items["image"])

	var items []content.Item
	readJSON(t, filepath.Join(root, "image.json"), &items)
	var refs []string
	readJSON(t, filepath.Join(root, "painting.json"), &refs)
	require.Len(t, refs, 2)

	second, err := content.Migrate(f.Context(), opts)
	require.NoError(t, err)
	require.True(t, second.AlreadyMigrated)

	var itemsAfter []content.Item
	readJSON(t, filepath.Join(root, "image.json"), &itemsAfter)
	require.Len(t, itemsAfter, 2)
	require.Equal(t, items[0].ID, itemsAfter[0].ID)
	require.Equal(t, items[1].ID, itemsAfter[1].ID)

	var refsAfter []string
	readJSON(t, filepath.Join(root, "painting.json"), &refsAfter)
	require.Equal(t, refs, refsAfter)
}

func TestMigrate_MigratedCategoryKeepsRefsWhenOthersConvert(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	cat, err := content.NewCatalog(
		[]content.MediaType{{ID: "image"}},
		[]content.Category{
			{ID: "painting", MediaType: "image", DataFile: "data/paintings.json"},
			{ID: "drawing", MediaType: "image"},
		},
	)
	require.NoError(t, err)

	root := filepath.Join(t.TempDir(), "data")
	writeDoc(t, root, "paintings.json", `[{"title": "A"}]`)
	opts := content.MigrateOptions{Root: root, Catalog: cat, Clock: f.Clock}
	_, err = content.Migrate(f.Context(), opts)
	require.NoError(t, err)

	var refs []string
	readJSON(t, filepath.Join(root, "painting.json"), &refs)
	require.Len(t, refs, 1)

	// A later legacy document for another category converts on its own.
	writeDoc(t, root, "drawing.json", `[{"title": "Sketch"}]`)
	rep, err := content.Migrate(f.Context(), opts)
	require.NoError(t, err)
	require.False(t, rep.AlreadyMigrated)
	require.Equal(t, 2, rep.Items["image"])
	require.Equal(t, 1, rep.Refs["painting"])

	var refsAfter []string
	readJSON(t, filepath.Join(root, "painting.json"), &refsAfter)
	require.Equal(t, refs, refsAfter)
}

package cli_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/cli"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/stretchr/testify/require"
)

func TestAddAndList(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)

	it := f.Add("painting", "Sunset", "--url", "https://cdn.test/sunset.jpg", "--medium", "oil")
	require.Equal(t, "image", it.MediaType)
	require.Equal(t, "Sunset", it.Title.Get("fr"))
	require.Equal(t, "oil", it.Medium.Get("en"))
	require.Equal(t, "2025-06-01", it.Created)

	var items []content.Item
	require.NoError(t, json.Unmarshal([]byte(f.MustRun("list", "painting")), &items))
	require.Len(t, items, 1)
	require.Equal(t, it.ID, items[0].ID)

	var all map[string][]content.Item
	require.NoError(t, json.Unmarshal([]byte(f.MustRun("list")), &all))
	require.Len(t, all["painting"], 1)
	require.Empty(t, all["music"])

	var stored []content.Item
	require.NoError(t, json.Unmarshal([]byte(f.MustRun("items", "image")), &stored))
	require.Len(t, stored, 1)
}

func TestGetFindWhere(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	it := f.Add("drawing", "Crow", "--genre", "sketch")

	var got content.Item
	require.NoError(t, json.Unmarshal([]byte(f.MustRun("get", it.ID)), &got))
	require.Equal(t, it.ID, got.ID)

	require.NoError(t, json.Unmarshal([]byte(f.MustRun("find", "title", "Crow")), &got))
	require.Equal(t, it.ID, got.ID)

	require.Equal(t, "drawing\n", f.MustRun("where", it.ID))
}

func TestGet_NotFoundRendersShortError(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)

	res := f.Run("get", "nope")
	require.Equal(t, 1, res.Code)
	require.True(t, content.IsNotFound(res.Err))
	require.Equal(t, "Error: item nope not found\n", res.Stderr)
}

func TestSet(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	it := f.Add("painting", "Sunset")

	var got content.Item
	out := f.MustRun("set", it.ID, "title.fr=Coucher de soleil", "year=1999", "genre=")
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "Sunset", got.Title.Get("en"))
	require.Equal(t, "Coucher de soleil", got.Title.Get("fr"))
	require.JSONEq(t, "1999", string(got.Extra["year"]))

	res := f.Run("set", it.ID, "bad")
	require.Equal(t, 1, res.Code)
	require.Equal(t, "Error: expected key=value, got \"bad\"\n", res.Stderr)

	res = f.Run("set", it.ID, "mediaType=audio")
	require.Equal(t, 1, res.Code)
	require.True(t, strings.HasPrefix(res.Stderr, "Error: field mediaType"))
}

func TestMove(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	it := f.Add("painting", "Sunset")

	require.Equal(t, "moved "+it.ID+" from painting to drawing\n", f.MustRun("mv", it.ID, "drawing"))
	require.Equal(t, "drawing\n", f.MustRun("where", it.ID))

	res := f.Run("mv", it.ID, "drawing", "music")
	require.Equal(t, 1, res.Code)
	require.Equal(t,
		"Error: cannot move "+it.ID+" from drawing (image) to music (audio): media types differ\n",
		res.Stderr)
}

func TestRemove_WarnsAboutLeftoverAssets(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	it := f.Add("painting", "Sunset",
		"--url", "https://cdn.test/a.jpg",
		"--gallery", "https://cdn.test/b.jpg")
	f.Cleaner.fail["https://cdn.test/b.jpg"] = true

	res := f.Run("rm", it.ID)
	require.NoError(t, res.Err)
	require.Equal(t, 0, res.Code)
	require.Contains(t, res.Stdout, "deleted "+it.ID+" from painting")
	require.Contains(t, res.Stdout, "removed asset https://cdn.test/a.jpg")
	require.Contains(t, res.Stderr, "Warning: item deleted but 1 asset(s) could not be removed: https://cdn.test/b.jpg")

	require.Equal(t, 1, f.Run("get", it.ID).Code)
	require.Empty(t, f.MustRun("refs", "painting"))
}

func TestRefs(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	a := f.Add("painting", "A")
	b := f.Add("painting", "B")

	require.Equal(t, a.ID+"\n"+b.ID+"\n", f.MustRun("refs", "painting"))
	require.Equal(t, b.ID+"\n"+a.ID+"\n", f.MustRun("refs", "painting", "--set", b.ID+", "+a.ID))
	require.Empty(t, f.MustRun("refs", "painting", "--clear"))

	res := f.Run("refs", "sculpture")
	require.Equal(t, 1, res.Code)
	require.Equal(t, "Error: category \"sculpture\" is not configured\n", res.Stderr)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	f.Add("painting", "A")
	require.Equal(t, "ok\n", f.MustRun("check"))

	f.WriteData("drawing.json", `["ghost"]`)
	res := f.Run("check")
	require.Equal(t, 1, res.Code)
	require.ErrorIs(t, res.Err, cli.ErrCheckFailed)
	require.Contains(t, res.Stdout, "dangling-ref\tdrawing\tghost\t")

	res = f.Run("check", "--json")
	var rep content.CheckReport
	require.NoError(t, json.Unmarshal([]byte(res.Stdout), &rep))
	require.Len(t, rep.ByKind(content.IssueDanglingRef), 1)
}

func TestMigrate(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	f.WriteData("painting.json", `[{"id": "old-1", "title": "Sunset"}]`)

	dry := f.MustRun("migrate", "--dry-run")
	require.Contains(t, dry, "media type image: 1 item(s)")
	require.Contains(t, dry, "dry run, nothing written")

	out := f.MustRun("migrate")
	require.Contains(t, out, "category painting: 1 ref(s)")
	require.Contains(t, out, "backup written to "+filepath.Join(f.Root, "backups", "backup-20250601-103000"))

	var it content.Item
	require.NoError(t, json.Unmarshal([]byte(f.MustRun("get", "old-1")), &it))
	require.Equal(t, "old-1", it.LegacyID)

	require.Equal(t, "already migrated, nothing to do\n", f.MustRun("migrate"))
}

func TestInitAndConfig(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	dir := filepath.Join(f.Root, "site")

	out := f.MustRun("init", dir)
	path := filepath.Join(dir, "portfolio.yaml")
	require.Equal(t, "wrote "+path+"\n", out)
	require.DirExists(t, filepath.Join(dir, "data"))

	res := f.Run("init", dir)
	require.Equal(t, 1, res.Code)
	require.Contains(t, res.Stderr, "already exists")

	shown := f.RunRaw("--config", path, "config")
	require.NoError(t, shown.Err)
	require.Contains(t, shown.Stdout, "- id: painting")

	require.Equal(t, path+"\n", f.RunRaw("--config", path, "config", "--path").Stdout)
}

func TestConfig_MasksCredentials(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)

	out := f.MustRun("config")
	require.Contains(t, out, "repo: someone/site")
	require.Contains(t, out, "****")
	require.NotContains(t, out, "ghp_secret")
}

func TestUnlock(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	f.WriteData("painting.json.lock", "123 stale\n")

	f.MustRun("unlock")
	_, err := os.Stat(filepath.Join(f.Root, "data", "painting.json.lock"))
	require.True(t, os.IsNotExist(err))
}

func TestMissingConfig(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)

	res := f.RunRaw("--config", filepath.Join(f.Root, "absent.yaml"), "list")
	require.Equal(t, 1, res.Code)
	require.True(t, strings.HasPrefix(res.Stderr, "Error: "))
}

func TestCorruptDocumentErrorsSuggestRecovery(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	f.WriteData("image.json", "{not json")
	f.WriteData("painting.json", `[]`)
	partition := filepath.Join(f.Root, "data", "image.json")

	res := f.Run("add", "painting", "--title", "x")
	require.Equal(t, 1, res.Code)
	require.ErrorIs(t, res.Err, content.ErrCorruptDocument)
	require.Contains(t, res.Stderr, "Error: "+partition+" could not be parsed and was left unchanged")
	require.Contains(t, res.Stderr, "portfolio check")

	f.WriteData("image.json", `[{"id": "u1", "title": "A"}, 7]`)
	f.WriteData("painting.json", `["u1"]`)
	res = f.Run("rm", "u1")
	require.Equal(t, 1, res.Code)
	require.ErrorIs(t, res.Err, content.ErrCorruptDocument)
	require.Contains(t, res.Stderr, partition+" could not be parsed")
	require.Contains(t, res.Stderr, "fix it by hand")
}

func TestDebugLevelShowsFullError(t *testing.T) {
	t.Parallel()
	f := NewFixture(t)
	// A directory where the partition document belongs cannot be read.
	require.NoError(t, os.MkdirAll(filepath.Join(f.Root, "data", "image.json"), 0o755))

	res := f.Run("items", "image")
	require.Equal(t, 1, res.Code)
	require.Contains(t, res.Stderr, "fs storage error:")
	require.Contains(t, res.Stderr, "--log-level debug")

	res = f.Run("--log-level", "debug", "items", "image")
	require.Equal(t, 1, res.Code)
	require.NotContains(t, res.Stderr, "--log-level debug")
	require.Contains(t, res.Stderr, filepath.Join(f.Root, "data", "image.json"))
}

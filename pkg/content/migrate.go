package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

// MigrateOptions configures a one-shot conversion from per-category item
// documents to media type partitions plus category ref lists.
type MigrateOptions struct {
	// Root is the data directory holding the legacy category documents.
	Root string
	// BackupRoot receives a timestamped copy of every document that will be
	// overwritten. Defaults to a "backups" directory next to Root.
	BackupRoot string
	Catalog    *Catalog
	Clock      internal.Clock
	// DryRun computes the report without touching disk.
	DryRun bool
}

type MigrateReport struct {
	AlreadyMigrated bool           `json:"alreadyMigrated"`
	DryRun          bool           `json:"dryRun,omitempty"`
	BackupDir       string         `json:"backupDir,omitempty"`
	Items           map[string]int `json:"items"`
	Refs            map[string]int `json:"refs"`
	Skipped         []string       `json:"skipped,omitempty"`
}

type legacyDoc struct {
	cat     Category
	path    string
	entries []json.RawMessage

	// migrated is set when the category's ref list already exists apart
	// from its legacy document; refs then holds that list.
	migrated bool
	refs     []string
}

// Migrate converts legacy category documents in place. Each object entry
// gets a fresh UUID; an existing id moves to legacyId. String entries are
// kept as refs. Every media type partition is written, empty or not, and
// every category gets a ref list. When no category document holds objects
// the data is already normalised and nothing is written. A category whose
// legacy document lives apart from its ref list counts as normalised once
// that ref list exists.
func Migrate(ctx context.Context, opts MigrateOptions) (*MigrateReport, error) {
	lg := log.FromContext(ctx)
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if err := opts.Catalog.Validate(); err != nil {
		return nil, err
	}
	if opts.BackupRoot == "" {
		opts.BackupRoot = filepath.Join(filepath.Dir(filepath.Clean(opts.Root)), "backups")
	}

	rep := &MigrateReport{
		DryRun: opts.DryRun,
		Items:  map[string]int{},
		Refs:   map[string]int{},
	}

	docs := make([]legacyDoc, 0, len(opts.Catalog.Categories))
	needed := false
	for _, cat := range opts.Catalog.Categories {
		path := filepath.Join(opts.Root, cat.LegacyFile())
		if cat.LegacyFile() != cat.ID+".json" {
			if refs, ok := readRefList(filepath.Join(opts.Root, cat.ID+".json")); ok {
				lg.Debug("category already migrated", "category", cat.ID, "refs", len(refs))
				docs = append(docs, legacyDoc{cat: cat, path: path, migrated: true, refs: refs})
				continue
			}
		}
		entries, err := readLegacyDoc(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				lg.Warn("legacy document missing, category starts empty", "category", cat.ID, "path", path)
			} else {
				lg.Warn("legacy document unreadable, category starts empty", "category", cat.ID, "path", path, "err", err)
			}
			rep.Skipped = append(rep.Skipped, cat.ID)
			entries = nil
		}
		for _, e := range entries {
			if isObject(e) {
				needed = true
				break
			}
		}
		docs = append(docs, legacyDoc{cat: cat, path: path, entries: entries})
	}

	if !needed {
		lg.Info("data already migrated, nothing to do", "root", opts.Root)
		rep.AlreadyMigrated = true
		rep.Skipped = nil
		return rep, nil
	}

	partitions := make(map[string][]Item, len(opts.Catalog.MediaTypes))
	refs := make(map[string][]string, len(opts.Catalog.Categories))
	for _, m := range opts.Catalog.MediaTypes {
		ppath := filepath.Join(opts.Root, m.PartitionName()+".json")
		existing, corrupt, err := readDoc[Item](ctx, ppath)
		if err != nil {
			return nil, err
		}
		if corrupt {
			return nil, newBackendError("fs", "migrate", ppath, ErrCorruptDocument)
		}
		byLegacy := map[string]string{}
		for i := range existing {
			existing[i].MediaType = m.ID
			if existing[i].LegacyID != "" {
				byLegacy[existing[i].LegacyID] = existing[i].ID
			}
		}
		items := existing

		for _, d := range docs {
			if d.cat.MediaType != m.ID {
				continue
			}
			if d.migrated {
				refs[d.cat.ID] = d.refs
				rep.Refs[d.cat.ID] = len(d.refs)
				continue
			}
			ids := []string{}
			for i, raw := range d.entries {
				if !isObject(raw) {
					var id string
					if err := json.Unmarshal(raw, &id); err != nil || id == "" {
						lg.Warn("skipping legacy entry", "category", d.cat.ID, "index", i)
						rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s[%d]", d.cat.ID, i))
						continue
					}
					ids = append(ids, id)
					continue
				}
				it, err := convertLegacy(raw, m.ID)
				if err != nil {
					lg.Warn("skipping legacy entry", "category", d.cat.ID, "index", i, "err", err)
					rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s[%d]", d.cat.ID, i))
					continue
				}
				if prev, ok := byLegacy[it.LegacyID]; ok && it.LegacyID != "" {
					ids = append(ids, prev)
					continue
				}
				if it.LegacyID != "" {
					byLegacy[it.LegacyID] = it.ID
				}
				items = append(items, it)
				ids = append(ids, it.ID)
			}
			refs[d.cat.ID] = ids
			rep.Refs[d.cat.ID] = len(ids)
			lg.Info("category migrated", "category", d.cat.ID, "refs", len(ids))
		}
		partitions[m.ID] = items
		rep.Items[m.ID] = len(items)
	}

	if opts.DryRun {
		return rep, nil
	}

	backupDir := filepath.Join(opts.BackupRoot, "backup-"+internal.Stamp(opts.Clock))
	if err := backupDocs(opts, docs, backupDir); err != nil {
		return nil, err
	}
	rep.BackupDir = backupDir
	lg.Info("legacy documents backed up", "dir", backupDir)

	for _, m := range opts.Catalog.MediaTypes {
		path := filepath.Join(opts.Root, m.PartitionName()+".json")
		if err := saveDoc(path, partitions[m.ID]); err != nil {
			return rep, fmt.Errorf("write partition %s: %w", m.ID, err)
		}
	}
	for _, cat := range opts.Catalog.Categories {
		path := filepath.Join(opts.Root, cat.ID+".json")
		if err := saveDoc(path, refs[cat.ID]); err != nil {
			return rep, fmt.Errorf("write refs %s: %w", cat.ID, err)
		}
	}
	lg.Info("migration complete", "root", opts.Root, "mediaTypes", len(partitions), "categories", len(refs))
	return rep, nil
}

// readLegacyDoc accepts a bare array or an object with an "items" array.
func readLegacyDoc(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var wrapped struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

// readRefList reports whether path holds a JSON array of strings.
func readRefList(path string) ([]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, false
	}
	var refs []string
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, false
	}
	if refs == nil {
		refs = []string{}
	}
	return refs, true
}

func isObject(raw json.RawMessage) bool {
	b := bytes.TrimSpace(raw)
	return len(b) > 0 && b[0] == '{'
}

func convertLegacy(raw json.RawMessage, mediaType string) (Item, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Item{}, err
	}
	if old, ok := obj["id"]; ok {
		delete(obj, "id")
		if legacy := legacyIDString(old); legacy != "" {
			if _, has := obj["legacyId"]; !has {
				b, _ := json.Marshal(legacy)
				obj["legacyId"] = b
			}
		}
	}
	id, _ := json.Marshal(newItemID())
	mt, _ := json.Marshal(mediaType)
	obj["id"] = id
	obj["mediaType"] = mt

	data, err := json.Marshal(obj)
	if err != nil {
		return Item{}, err
	}
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// legacyIDString renders string and numeric ids as text.
func legacyIDString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func backupDocs(opts MigrateOptions, docs []legacyDoc, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newBackendError("fs", "backup", dir, err)
	}
	paths := make([]string, 0, len(docs)+len(opts.Catalog.MediaTypes))
	for _, d := range docs {
		paths = append(paths, d.path)
	}
	for _, m := range opts.Catalog.MediaTypes {
		paths = append(paths, filepath.Join(opts.Root, m.PartitionName()+".json"))
	}

	seen := map[string]bool{}
	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return newBackendError("fs", "backup", p, err)
		}
		rel, err := filepath.Rel(opts.Root, p)
		if err != nil || strings.HasPrefix(rel, "..") {
			rel = filepath.Base(p)
		}
		if err := writeFileAtomic(filepath.Join(dir, rel), data); err != nil {
			return err
		}
	}
	return nil
}

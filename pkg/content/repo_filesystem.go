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
	"slices"
	"sync"
	"time"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

// ErrCorruptDocument is returned when a write would replace a document that
// could not be parsed.
var ErrCorruptDocument = errors.New("document is not valid JSON for its kind")

// FsRepo stores each media type partition and each category ref list as a
// pretty-printed JSON document under Root:
//
//	<Root>/<partition>.json   array of items
//	<Root>/<category>.json    array of item ids
//
// Reads are lenient: missing, empty or malformed documents read as empty.
// Writes go through mutateDoc, which holds a per-document lock file for the
// whole load-modify-save cycle.
type FsRepo struct {
	Root    string
	Catalog *Catalog

	// LockTimeout bounds how long a write waits for a document lock.
	LockTimeout  time.Duration
	LockInterval time.Duration

	mu sync.Mutex
}

var _ Repository = (*FsRepo)(nil)

// NewFsRepo returns a file-backed repository rooted at root.
func NewFsRepo(root string, catalog *Catalog) *FsRepo {
	return &FsRepo{Root: root, Catalog: catalog}
}

func (f *FsRepo) partitionPath(mediaType string) (string, error) {
	m, err := f.Catalog.MediaType(mediaType)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.Root, m.PartitionName()+".json"), nil
}

func (f *FsRepo) refsPath(categoryID string) (Category, string, error) {
	cat, err := f.Catalog.Category(categoryID)
	if err != nil {
		return Category{}, "", err
	}
	return cat, filepath.Join(f.Root, cat.ID+".json"), nil
}

func (f *FsRepo) ListItems(ctx context.Context, mediaType string) ([]Item, error) {
	path, err := f.partitionPath(mediaType)
	if err != nil {
		return nil, err
	}
	items, _, err := readDoc[Item](ctx, path)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].MediaType = mediaType
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// findItem scans partitions in catalog order.
func (f *FsRepo) findItem(ctx context.Context, id string) (Item, string, error) {
	for _, m := range f.Catalog.MediaTypes {
		items, err := f.ListItems(ctx, m.ID)
		if err != nil {
			return Item{}, "", err
		}
		for _, it := range items {
			if it.ID == id {
				return it, m.ID, nil
			}
		}
	}
	return Item{}, "", &ItemNotFoundError{ID: id}
}

func (f *FsRepo) GetItem(ctx context.Context, id string) (Item, error) {
	it, _, err := f.findItem(ctx, id)
	return it, err
}

func (f *FsRepo) CreateItem(ctx context.Context, mediaType string, item Item) (Item, error) {
	path, err := f.partitionPath(mediaType)
	if err != nil {
		return Item{}, err
	}
	it := item.Clone()
	if it.ID == "" {
		it.ID = newItemID()
	} else if _, _, err := f.findItem(ctx, it.ID); err == nil {
		return Item{}, &FieldError{Field: "id", Msg: fmt.Sprintf("%s already exists", it.ID)}
	} else if !IsNotFound(err) {
		return Item{}, err
	}
	it.MediaType = mediaType

	err = mutateDoc(ctx, f, path, func(doc []Item) ([]Item, bool, error) {
		return append(doc, it), true, nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("create item: %w", err)
	}
	log.FromContext(ctx).Info("item created", "id", it.ID, "mediaType", mediaType)
	return it.Clone(), nil
}

func (f *FsRepo) UpdateItem(ctx context.Context, id string, patch Patch) (Item, error) {
	_, mediaType, err := f.findItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	path, err := f.partitionPath(mediaType)
	if err != nil {
		return Item{}, err
	}

	var updated Item
	err = mutateDoc(ctx, f, path, func(doc []Item) ([]Item, bool, error) {
		i := slices.IndexFunc(doc, func(it Item) bool { return it.ID == id })
		if i < 0 {
			return nil, false, &ItemNotFoundError{ID: id}
		}
		cur := doc[i]
		cur.MediaType = mediaType
		next, err := cur.Apply(patch)
		if err != nil {
			return nil, false, err
		}
		doc[i] = next
		updated = next
		return doc, true, nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("update item %s: %w", id, err)
	}
	return updated.Clone(), nil
}

func (f *FsRepo) DeleteItem(ctx context.Context, id string) (Item, error) {
	_, mediaType, err := f.findItem(ctx, id)
	if err != nil {
		return Item{}, err
	}
	path, err := f.partitionPath(mediaType)
	if err != nil {
		return Item{}, err
	}

	var removed Item
	err = mutateDoc(ctx, f, path, func(doc []Item) ([]Item, bool, error) {
		i := slices.IndexFunc(doc, func(it Item) bool { return it.ID == id })
		if i < 0 {
			return nil, false, &ItemNotFoundError{ID: id}
		}
		removed = doc[i]
		removed.MediaType = mediaType
		return slices.Delete(doc, i, i+1), true, nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("delete item %s: %w", id, err)
	}
	log.FromContext(ctx).Info("item deleted", "id", id, "mediaType", mediaType)
	return removed, nil
}

func (f *FsRepo) FindItemByField(ctx context.Context, field, value string) (Item, error) {
	for _, m := range f.Catalog.MediaTypes {
		items, err := f.ListItems(ctx, m.ID)
		if err != nil {
			return Item{}, err
		}
		for _, it := range items {
			if it.MatchField(field, value) {
				return it, nil
			}
		}
	}
	return Item{}, &ItemNotFoundError{ID: field + "=" + value}
}

func (f *FsRepo) GetRefs(ctx context.Context, categoryID string) ([]string, error) {
	_, path, err := f.refsPath(categoryID)
	if err != nil {
		return nil, err
	}
	refs, _, err := readDoc[string](ctx, path)
	if err != nil {
		return nil, err
	}
	return copyRefs(refs), nil
}

func (f *FsRepo) GetResolvedItems(ctx context.Context, categoryID string) ([]Item, error) {
	cat, err := f.Catalog.Category(categoryID)
	if err != nil {
		return nil, err
	}
	refs, err := f.GetRefs(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	items, err := f.ListItems(ctx, cat.MediaType)
	if err != nil {
		return nil, err
	}
	return resolveRefs(ctx, categoryID, refs, indexItems(items)), nil
}

func (f *FsRepo) GetAllCategorizedItems(ctx context.Context) (map[string][]Item, error) {
	out := make(map[string][]Item, len(f.Catalog.Categories))
	for _, cat := range f.Catalog.Categories {
		items, err := f.GetResolvedItems(ctx, cat.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve category %s: %w", cat.ID, err)
		}
		out[cat.ID] = items
	}
	return out, nil
}

func (f *FsRepo) AddRef(ctx context.Context, id, categoryID string) (bool, error) {
	_, path, err := f.refsPath(categoryID)
	if err != nil {
		return false, err
	}
	var added bool
	err = mutateDoc(ctx, f, path, func(refs []string) ([]string, bool, error) {
		if slices.Contains(refs, id) {
			return refs, false, nil
		}
		added = true
		return append(refs, id), true, nil
	})
	if err != nil {
		return false, fmt.Errorf("add ref %s to %s: %w", id, categoryID, err)
	}
	return added, nil
}

func (f *FsRepo) RemoveRef(ctx context.Context, id, categoryID string) (bool, error) {
	_, err := f.removeRefAt(ctx, id, categoryID)
	if errors.Is(err, errRefAbsent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

var errRefAbsent = errors.New("ref absent")

// removeRefAt removes id and returns the position it held.
func (f *FsRepo) removeRefAt(ctx context.Context, id, categoryID string) (int, error) {
	_, path, err := f.refsPath(categoryID)
	if err != nil {
		return -1, err
	}
	pos := -1
	err = mutateDoc(ctx, f, path, func(refs []string) ([]string, bool, error) {
		pos = slices.Index(refs, id)
		if pos < 0 {
			return refs, false, nil
		}
		return slices.Delete(refs, pos, pos+1), true, nil
	})
	if err != nil {
		return -1, fmt.Errorf("remove ref %s from %s: %w", id, categoryID, err)
	}
	if pos < 0 {
		return -1, errRefAbsent
	}
	return pos, nil
}

func (f *FsRepo) SetRefs(ctx context.Context, categoryID string, ids []string) error {
	_, path, err := f.refsPath(categoryID)
	if err != nil {
		return err
	}
	next := copyRefs(ids)
	err = mutateDoc(ctx, f, path, func([]string) ([]string, bool, error) {
		return next, true, nil
	})
	if err != nil {
		return fmt.Errorf("set refs for %s: %w", categoryID, err)
	}
	return nil
}

// ChangeCategory removes id from the source list and appends it to the
// target. When the append fails the id is put back where it was.
func (f *FsRepo) ChangeCategory(ctx context.Context, id, from, to string) error {
	if _, _, err := moveTargets(f.Catalog, id, from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	pos, err := f.removeRefAt(ctx, id, from)
	if errors.Is(err, errRefAbsent) {
		return &RefNotFoundError{ID: id, Category: from}
	}
	if err != nil {
		return err
	}

	if _, err := f.AddRef(ctx, id, to); err != nil {
		_, path, _ := f.refsPath(from)
		restoreErr := mutateDoc(ctx, f, path, func(refs []string) ([]string, bool, error) {
			if slices.Contains(refs, id) {
				return refs, false, nil
			}
			return insertAt(refs, pos, id), true, nil
		})
		return errors.Join(err, restoreErr)
	}
	log.FromContext(ctx).Info("item moved", "id", id, "from", from, "to", to)
	return nil
}

func (f *FsRepo) FindCategoryForItem(ctx context.Context, id string) (string, bool, error) {
	for _, cat := range f.Catalog.Categories {
		refs, err := f.GetRefs(ctx, cat.ID)
		if err != nil {
			return "", false, err
		}
		if slices.Contains(refs, id) {
			return cat.ID, true, nil
		}
	}
	return "", false, nil
}

///////////////////////////////////////////////////////////////////////////////
// Document helpers
///////////////////////////////////////////////////////////////////////////////

// readDoc loads a JSON array document. Missing and empty files are empty.
// Entries are decoded one by one; a file that is not an array reads as
// empty, and entries that cannot be decoded are skipped. Either case is
// reported as corrupt so writers leave the file alone.
func readDoc[T any](ctx context.Context, path string) ([]T, bool, error) {
	lg := log.FromContext(ctx)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			lg.Debug("document missing, treating as empty", "path", path)
			return nil, false, nil
		}
		return nil, false, newBackendError("fs", "read", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, false, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		lg.Warn("malformed document, treating as empty", "path", path, "err", err)
		return nil, true, nil
	}
	doc := make([]T, 0, len(entries))
	corrupt := false
	for i, raw := range entries {
		var v T
		err := json.Unmarshal(raw, &v)
		if err == nil && string(bytes.TrimSpace(raw)) == "null" {
			err = errors.New("null entry")
		}
		if err != nil {
			lg.Warn("skipping unreadable entry", "path", path, "index", i, "err", err)
			corrupt = true
			continue
		}
		doc = append(doc, v)
	}
	return doc, corrupt, nil
}

// encodeDoc renders doc the way every document on disk is written: 4-space
// indent, no HTML escaping, trailing newline.
func encodeDoc[T any](doc []T) ([]byte, error) {
	if doc == nil {
		doc = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newBackendError("fs", "mkdir", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return newBackendError("fs", "write", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return newBackendError("fs", "rename", path, err)
	}
	return nil
}

func saveDoc[T any](path string, doc []T) error {
	data, err := encodeDoc(doc)
	if err != nil {
		return newBackendError("fs", "encode", path, err)
	}
	return writeFileAtomic(path, data)
}

// mutateDoc is the only write path for FsRepo. It locks the document, loads
// it, applies fn and saves the result when fn reports a change. A document
// that exists but cannot be parsed is never overwritten.
func mutateDoc[T any](ctx context.Context, f *FsRepo, path string, fn func([]T) ([]T, bool, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newBackendError("fs", "mkdir", filepath.Dir(path), err)
	}

	lctx, cancel, retry := f.withLockContext(ctx)
	defer cancel()
	unlock, err := f.acquireLock(lctx, path, retry)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.FromContext(ctx).Warn("release document lock", "path", path, "err", err)
		}
	}()

	doc, corrupt, err := readDoc[T](ctx, path)
	if err != nil {
		return err
	}
	if corrupt {
		return newBackendError("fs", "mutate", path, ErrCorruptDocument)
	}

	next, changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return saveDoc(path, next)
}

// lockParams returns configured timeouts, falling back to safe defaults.
func (f *FsRepo) lockParams() (timeout time.Duration, retryInterval time.Duration) {
	timeout = f.LockTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	retryInterval = f.LockInterval
	if retryInterval == 0 {
		retryInterval = 50 * time.Millisecond
	}
	return
}

// withLockContext derives a context with the repo's configured lock timeout.
func (f *FsRepo) withLockContext(parent context.Context) (context.Context, context.CancelFunc, time.Duration) {
	if parent == nil {
		parent = context.Background()
	}
	timeout, retry := f.lockParams()
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, cancel, retry
}

// acquireLock creates <path>.lock with O_EXCL, retrying every retryInterval
// until ctx is done. The returned func removes the lock file.
func (f *FsRepo) acquireLock(ctx context.Context, path string, retryInterval time.Duration) (func() error, error) {
	lockPath := path + ".lock"

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		lf, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			// best-effort diagnostics
			_, _ = fmt.Fprintf(lf, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			_ = lf.Close()

			unlock := func() error {
				if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
					return newBackendError("fs", "unlock", lockPath, err)
				}
				return nil
			}
			return unlock, nil
		}

		if !os.IsExist(err) {
			return nil, newBackendError("fs", "lock", lockPath, err)
		}

		select {
		case <-ctx.Done():
			return nil, newBackendError("fs", "lock", lockPath, fmt.Errorf("%w: %s", ErrLockTimeout, ctx.Err()))
		case <-ticker.C:
		}
	}
}

// ClearLocks removes lock files left behind by crashed processes.
func (f *FsRepo) ClearLocks() error {
	matches, err := filepath.Glob(filepath.Join(f.Root, "*.json.lock"))
	if err != nil {
		return newBackendError("fs", "clear locks", f.Root, err)
	}
	var errs []error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

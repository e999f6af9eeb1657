package content

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

func newItemID() string { return uuid.NewString() }

// moveTargets validates a category change and returns both categories.
func moveTargets(c *Catalog, id, from, to string) (Category, Category, error) {
	src, err := c.Category(from)
	if err != nil {
		return Category{}, Category{}, err
	}
	dst, err := c.Category(to)
	if err != nil {
		return Category{}, Category{}, err
	}
	if src.MediaType != dst.MediaType {
		return src, dst, &MediaTypeMismatchError{
			ID:       id,
			From:     src.ID,
			To:       dst.ID,
			FromType: src.MediaType,
			ToType:   dst.MediaType,
		}
	}
	return src, dst, nil
}

// resolveRefs maps refs to items in ref order, logging refs that do not
// resolve.
func resolveRefs(ctx context.Context, categoryID string, refs []string, byID map[string]Item) []Item {
	lg := log.FromContext(ctx)
	out := make([]Item, 0, len(refs))
	for _, id := range refs {
		it, ok := byID[id]
		if !ok {
			lg.Warn("dangling category ref", "category", categoryID, "id", id)
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

func indexItems(items []Item) map[string]Item {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}

func copyRefs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}

// insertAt puts id back at position i, clamped to the list bounds.
func insertAt(refs []string, i int, id string) []string {
	if i < 0 || i > len(refs) {
		i = len(refs)
	}
	return slices.Insert(refs, i, id)
}

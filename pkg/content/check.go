package content

import (
	"context"
	"fmt"
	"strings"
)

type IssueKind string

const (
	IssueDanglingRef       IssueKind = "dangling-ref"
	IssueMediaTypeMismatch IssueKind = "media-type-mismatch"
	IssueDuplicateRef      IssueKind = "duplicate-ref"
	IssueSiblingConflict   IssueKind = "sibling-conflict"
	IssueOrphan            IssueKind = "orphan"
)

// Issue is one data-quality finding. None of them block reads.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Category string    `json:"category,omitempty"`
	ItemID   string    `json:"itemId"`
	Message  string    `json:"message"`
}

// CheckReport summarises referential consistency between partitions and
// category lists.
type CheckReport struct {
	Issues []Issue `json:"issues"`
	// Filed counts resolvable refs per category.
	Filed map[string]int `json:"filed"`
	// Items counts stored items per media type.
	Items map[string]int `json:"items"`
}

func (r *CheckReport) OK() bool { return len(r.Issues) == 0 }

// ByKind returns the issues of one kind in report order.
func (r *CheckReport) ByKind(kind IssueKind) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Kind == kind {
			out = append(out, is)
		}
	}
	return out
}

func (r *CheckReport) add(kind IssueKind, category, id, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Kind:     kind,
		Category: category,
		ItemID:   id,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Check reads every partition and ref list and reports dangling refs, refs
// to the wrong media type, duplicates, items filed in several sibling
// categories and items filed nowhere. It never writes.
func (p *Portfolio) Check(ctx context.Context) (*CheckReport, error) {
	rep := &CheckReport{
		Filed: make(map[string]int, len(p.catalog.Categories)),
		Items: make(map[string]int, len(p.catalog.MediaTypes)),
	}

	owner := map[string]string{}
	var ordered []Item
	for _, m := range p.catalog.MediaTypes {
		items, err := p.repo.ListItems(ctx, m.ID)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", m.ID, err)
		}
		rep.Items[m.ID] = len(items)
		for _, it := range items {
			owner[it.ID] = m.ID
			ordered = append(ordered, it)
		}
	}

	filedIn := map[string][]string{}
	var filedOrder []string
	for _, cat := range p.catalog.Categories {
		refs, err := p.repo.GetRefs(ctx, cat.ID)
		if err != nil {
			return nil, fmt.Errorf("refs %s: %w", cat.ID, err)
		}
		seen := map[string]bool{}
		for _, id := range refs {
			if seen[id] {
				rep.add(IssueDuplicateRef, cat.ID, id, "%s is listed more than once in %s", id, cat.ID)
				continue
			}
			seen[id] = true

			mt, ok := owner[id]
			switch {
			case !ok:
				rep.add(IssueDanglingRef, cat.ID, id, "%s in %s does not name an item", id, cat.ID)
				continue
			case mt != cat.MediaType:
				rep.add(IssueMediaTypeMismatch, cat.ID, id, "%s is a %s item but %s holds %s", id, mt, cat.ID, cat.MediaType)
				continue
			}
			rep.Filed[cat.ID]++
			if _, ok := filedIn[id]; !ok {
				filedOrder = append(filedOrder, id)
			}
			filedIn[id] = append(filedIn[id], cat.ID)
		}
	}

	for _, id := range filedOrder {
		if cats := filedIn[id]; len(cats) > 1 {
			rep.add(IssueSiblingConflict, cats[0], id, "%s is filed in %s", id, strings.Join(cats, ", "))
		}
	}
	for _, it := range ordered {
		if _, ok := filedIn[it.ID]; !ok {
			rep.add(IssueOrphan, "", it.ID, "%s (%s) is not filed in any category", it.ID, it.MediaType)
		}
	}
	return rep, nil
}

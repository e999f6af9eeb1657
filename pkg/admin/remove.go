package admin

import (
	"context"
	"fmt"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
)

type RemoveOptions struct {
	ID string

	// Category skips the lookup of the item's category.
	Category string
}

// Remove deletes an item, unfiles it and removes its hosted assets. Assets
// that could not be removed are reported in the result's Warning.
func (a *Admin) Remove(ctx context.Context, opts RemoveOptions) (*content.DeleteResult, error) {
	if opts.ID == "" {
		return nil, usagef("item id is required")
	}
	return a.Portfolio.DeleteAndUnfile(ctx, opts.ID, opts.Category)
}

type MoveOptions struct {
	ID string

	// From is looked up when empty.
	From string
	To   string
}

// Move refiles an item in another category of the same media type and
// returns the source category.
func (a *Admin) Move(ctx context.Context, opts MoveOptions) (string, error) {
	if opts.ID == "" || opts.To == "" {
		return "", usagef("item id and target category are required")
	}
	from := opts.From
	if from == "" {
		cat, ok, err := a.repo().FindCategoryForItem(ctx, opts.ID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("item %s is not filed in any category: %w", opts.ID, content.ErrNotExist)
		}
		from = cat
	}
	if err := a.Portfolio.Move(ctx, opts.ID, from, opts.To); err != nil {
		return from, err
	}
	return from, nil
}

type RefsOptions struct {
	Category string

	// Set replaces the list when non-nil.
	Set []string
}

// Refs returns a category's id list, replacing it first when opts.Set is
// given.
func (a *Admin) Refs(ctx context.Context, opts RefsOptions) ([]string, error) {
	if opts.Category == "" {
		return nil, usagef("category is required")
	}
	if opts.Set != nil {
		if err := a.repo().SetRefs(ctx, opts.Category, opts.Set); err != nil {
			return nil, err
		}
	}
	return a.repo().GetRefs(ctx, opts.Category)
}

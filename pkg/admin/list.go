package admin

import (
	"context"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
)

type ListOptions struct {
	// Category limits the listing to one category. Empty lists every
	// category.
	Category string
}

// List returns resolved items keyed by category.
func (a *Admin) List(ctx context.Context, opts ListOptions) (map[string][]content.Item, error) {
	if opts.Category == "" {
		return a.Portfolio.GetAllCategorizedItems(ctx)
	}
	items, err := a.repo().GetResolvedItems(ctx, opts.Category)
	if err != nil {
		return nil, err
	}
	return map[string][]content.Item{opts.Category: items}, nil
}

type ItemsOptions struct {
	MediaType string
}

// Items lists every stored item of one media type, filed or not.
func (a *Admin) Items(ctx context.Context, opts ItemsOptions) ([]content.Item, error) {
	if opts.MediaType == "" {
		return nil, usagef("media type is required")
	}
	return a.repo().ListItems(ctx, opts.MediaType)
}

type GetOptions struct {
	// ID is an item id or a pre-migration legacy id.
	ID string
}

func (a *Admin) Get(ctx context.Context, opts GetOptions) (content.Item, error) {
	if strings.TrimSpace(opts.ID) == "" {
		return content.Item{}, usagef("item id is required")
	}
	return a.Portfolio.FindItem(ctx, opts.ID)
}

type FindOptions struct {
	Field string
	Value string
}

// Find returns the first item whose field equals value.
func (a *Admin) Find(ctx context.Context, opts FindOptions) (content.Item, error) {
	if opts.Field == "" {
		return content.Item{}, usagef("field is required")
	}
	return a.repo().FindItemByField(ctx, opts.Field, opts.Value)
}

type WhereOptions struct {
	ID string
}

// Where returns the first category, in catalog order, listing the item.
func (a *Admin) Where(ctx context.Context, opts WhereOptions) (string, bool, error) {
	if opts.ID == "" {
		return "", false, usagef("item id is required")
	}
	return a.repo().FindCategoryForItem(ctx, opts.ID)
}

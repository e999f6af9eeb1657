// Package content stores portfolio items and the category reference lists
// that order them for display. Items live in one partition per media type;
// categories hold ordered lists of item ids within a single media type.
package content

import "context"

// Repository is the storage contract shared by every backend. All methods
// complete their I/O before returning.
//
// Not-found conditions are returned as errors wrapping ErrNotExist.
// Storage failures are *BackendError values and are never reported as an
// empty result.
type Repository interface {
	// ListItems returns every item in the media type's partition. A
	// partition that was never written is empty.
	ListItems(ctx context.Context, mediaType string) ([]Item, error)

	// GetItem finds an item by id across all partitions.
	GetItem(ctx context.Context, id string) (Item, error)

	// CreateItem stores item in the media type's partition. An empty id is
	// replaced with a fresh UUID. The stored record is returned.
	CreateItem(ctx context.Context, mediaType string, item Item) (Item, error)

	// UpdateItem shallow-merges patch into the stored item and returns the
	// result.
	UpdateItem(ctx context.Context, id string, patch Patch) (Item, error)

	// DeleteItem removes the item and returns the removed record. Category
	// refs are left alone.
	DeleteItem(ctx context.Context, id string) (Item, error)

	// FindItemByField returns the first item whose field equals value,
	// scanning partitions in catalog order.
	FindItemByField(ctx context.Context, field, value string) (Item, error)

	// GetRefs returns the category's ordered id list.
	GetRefs(ctx context.Context, categoryID string) ([]string, error)

	// GetResolvedItems returns the category's items in ref order. Refs that
	// no longer resolve within the category's media type are skipped.
	GetResolvedItems(ctx context.Context, categoryID string) ([]Item, error)

	// GetAllCategorizedItems resolves every configured category.
	GetAllCategorizedItems(ctx context.Context) (map[string][]Item, error)

	// AddRef appends id to the category. It reports false when the id was
	// already present, which is not an error.
	AddRef(ctx context.Context, id, categoryID string) (bool, error)

	// RemoveRef drops id from the category. It reports false when the id
	// was not present.
	RemoveRef(ctx context.Context, id, categoryID string) (bool, error)

	// SetRefs replaces the category's list wholesale.
	SetRefs(ctx context.Context, categoryID string, ids []string) error

	// ChangeCategory moves id between two categories of the same media type.
	ChangeCategory(ctx context.Context, id, from, to string) error

	// FindCategoryForItem returns the first category, in catalog order,
	// whose list holds id.
	FindCategoryForItem(ctx context.Context, id string) (string, bool, error)
}

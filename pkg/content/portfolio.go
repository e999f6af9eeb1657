package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/assets"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

// AssetCleaner removes the binary assets an item points at.
type AssetCleaner interface {
	DeleteAll(ctx context.Context, urls []string) assets.Report
}

// PortfolioOptions configures a Portfolio.
type PortfolioOptions struct {
	Repo    Repository
	Catalog *Catalog

	// Cleaner is optional. Without one, deletions leave assets in place.
	Cleaner AssetCleaner
	Clock   internal.Clock
}

// Portfolio composes the item store and the category index into the
// operations callers actually perform. It adds no state of its own.
type Portfolio struct {
	repo    Repository
	catalog *Catalog
	cleaner AssetCleaner
	clock   internal.Clock
}

func NewPortfolio(opts PortfolioOptions) (*Portfolio, error) {
	if opts.Repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	return &Portfolio{
		repo:    opts.Repo,
		catalog: opts.Catalog,
		cleaner: opts.Cleaner,
		clock:   internal.ClockOrReal(opts.Clock),
	}, nil
}

func (p *Portfolio) Repo() Repository  { return p.repo }
func (p *Portfolio) Catalog() *Catalog { return p.catalog }

// GetAllCategorizedItems resolves every configured category.
func (p *Portfolio) GetAllCategorizedItems(ctx context.Context) (map[string][]Item, error) {
	return p.repo.GetAllCategorizedItems(ctx)
}

// CreateAndFile creates item in the category's media type and appends it to
// the category. The two writes are not atomic: when filing fails the created
// item is returned alongside the error so the caller can retry AddRef.
func (p *Portfolio) CreateAndFile(ctx context.Context, categoryID string, item Item) (Item, error) {
	cat, err := p.catalog.Category(categoryID)
	if err != nil {
		return Item{}, err
	}
	if item.Date == "" {
		item.Date = internal.Today(p.clock)
	}
	if item.Created == "" {
		item.Created = internal.Today(p.clock)
	}

	created, err := p.repo.CreateItem(ctx, cat.MediaType, item)
	if err != nil {
		return Item{}, err
	}
	if _, err := p.repo.AddRef(ctx, created.ID, cat.ID); err != nil {
		log.FromContext(ctx).Error("item created but not filed", "id", created.ID, "category", cat.ID, "err", err)
		return created, fmt.Errorf("file item %s in %s: %w", created.ID, cat.ID, err)
	}
	return created, nil
}

// DeleteResult describes a completed deletion. Warning is set when some
// assets could not be removed.
type DeleteResult struct {
	Item     Item
	Category string
	Deleted  []string
	Warning  *CleanupWarning
}

// DeleteAndUnfile deletes the item, drops it from its category and removes
// its assets. When categoryID is empty the category is looked up first.
// Ref removal and asset cleanup are best-effort; only the item deletion can
// fail the call.
func (p *Portfolio) DeleteAndUnfile(ctx context.Context, id, categoryID string) (*DeleteResult, error) {
	lg := log.FromContext(ctx)

	if categoryID == "" {
		found, ok, err := p.repo.FindCategoryForItem(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			categoryID = found
		}
	} else if _, err := p.catalog.Category(categoryID); err != nil {
		return nil, err
	}

	removed, err := p.repo.DeleteItem(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &DeleteResult{Item: removed, Category: categoryID}

	if categoryID != "" {
		ok, err := p.repo.RemoveRef(ctx, id, categoryID)
		switch {
		case err != nil:
			lg.Warn("item deleted but ref not removed", "id", id, "category", categoryID, "err", err)
		case !ok:
			lg.Debug("deleted item was not filed in category", "id", id, "category", categoryID)
		}
	} else {
		lg.Debug("deleted item was not filed in any category", "id", id)
	}

	urls := removed.AssetURLs()
	if p.cleaner == nil || len(urls) == 0 {
		return res, nil
	}
	rep := p.cleaner.DeleteAll(ctx, urls)
	res.Deleted = rep.Deleted
	if !rep.OK() {
		res.Warning = &CleanupWarning{Failed: rep.Failed}
		lg.Warn("asset cleanup incomplete", "id", id, "failed", len(rep.Failed))
	}
	return res, nil
}

// Move changes an item's category within its media type.
func (p *Portfolio) Move(ctx context.Context, id, from, to string) error {
	return p.repo.ChangeCategory(ctx, id, from, to)
}

// FindItem resolves key as an item id, falling back to a legacy id.
func (p *Portfolio) FindItem(ctx context.Context, key string) (Item, error) {
	it, err := p.repo.GetItem(ctx, key)
	if err == nil || !errors.Is(err, ErrNotExist) {
		return it, err
	}
	legacy, lerr := p.repo.FindItemByField(ctx, "legacyId", key)
	if lerr == nil {
		return legacy, nil
	}
	if errors.Is(lerr, ErrNotExist) {
		return Item{}, err
	}
	return Item{}, lerr
}

package content

import (
	"fmt"
	"strings"
)

// MediaType is a storage partition for items of one kind.
type MediaType struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name,omitempty" json:"name,omitempty"`
	Partition       string `yaml:"partition,omitempty" json:"partition,omitempty"`
	SupportsGallery bool   `yaml:"supportsGallery,omitempty" json:"supportsGallery,omitempty"`
}

// PartitionName is the storage name of the partition, defaulting to the id.
func (m MediaType) PartitionName() string {
	if m.Partition != "" {
		return m.Partition
	}
	return m.ID
}

// Category is a display grouping bound to exactly one media type.
type Category struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
	MediaType string `yaml:"mediaType" json:"mediaType"`
	// DataFile names the pre-migration per-category document.
	DataFile string `yaml:"dataFile,omitempty" json:"dataFile,omitempty"`
}

// LegacyFile returns the per-category document name, relative to the data
// directory.
func (c Category) LegacyFile() string {
	if c.DataFile == "" {
		return c.ID + ".json"
	}
	return strings.TrimPrefix(strings.ReplaceAll(c.DataFile, "data/", ""), "/")
}

// Catalog is the configured set of media types and categories. Order is
// significant: lookups that can match several categories use catalog order.
type Catalog struct {
	MediaTypes []MediaType
	Categories []Category
}

// NewCatalog validates and returns a catalog.
func NewCatalog(mediaTypes []MediaType, categories []Category) (*Catalog, error) {
	c := &Catalog{
		MediaTypes: append([]MediaType(nil), mediaTypes...),
		Categories: append([]Category(nil), categories...),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports duplicate ids, categories bound to unknown media types,
// and category ids that collide with a partition name in the file layout.
func (c *Catalog) Validate() error {
	var problems []string

	partitions := map[string]string{}
	mediaIDs := map[string]bool{}
	for _, m := range c.MediaTypes {
		if strings.TrimSpace(m.ID) == "" {
			problems = append(problems, "media type with empty id")
			continue
		}
		if mediaIDs[m.ID] {
			problems = append(problems, fmt.Sprintf("duplicate media type %q", m.ID))
		}
		mediaIDs[m.ID] = true
		p := m.PartitionName()
		if other, ok := partitions[p]; ok && other != m.ID {
			problems = append(problems, fmt.Sprintf("media types %q and %q share partition %q", other, m.ID, p))
		}
		partitions[p] = m.ID
	}

	catIDs := map[string]bool{}
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.ID) == "" {
			problems = append(problems, "category with empty id")
			continue
		}
		if catIDs[cat.ID] {
			problems = append(problems, fmt.Sprintf("duplicate category %q", cat.ID))
		}
		catIDs[cat.ID] = true
		if !mediaIDs[cat.MediaType] {
			problems = append(problems, fmt.Sprintf("category %q uses unknown media type %q", cat.ID, cat.MediaType))
		}
		if m, ok := partitions[cat.ID]; ok {
			problems = append(problems, fmt.Sprintf("category %q collides with the partition of media type %q", cat.ID, m))
		}
	}

	if len(problems) > 0 {
		return &CatalogError{Problems: problems}
	}
	return nil
}

// Category returns the category with id.
func (c *Catalog) Category(id string) (Category, error) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return Category{}, &CategoryNotFoundError{ID: id}
}

// MediaType returns the media type with id.
func (c *Catalog) MediaType(id string) (MediaType, error) {
	for _, m := range c.MediaTypes {
		if m.ID == id {
			return m, nil
		}
	}
	return MediaType{}, &MediaTypeNotFoundError{ID: id}
}

// CategoriesFor lists the categories bound to mediaType in catalog order.
func (c *Catalog) CategoriesFor(mediaType string) []Category {
	var out []Category
	for _, cat := range c.Categories {
		if cat.MediaType == mediaType {
			out = append(out, cat)
		}
	}
	return out
}

// CategoryIDs lists every category id in catalog order.
func (c *Catalog) CategoryIDs() []string {
	ids := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		ids = append(ids, cat.ID)
	}
	return ids
}

// MediaTypeIDs lists every media type id in catalog order.
func (c *Catalog) MediaTypeIDs() []string {
	ids := make([]string, 0, len(c.MediaTypes))
	for _, m := range c.MediaTypes {
		ids = append(ids, m.ID)
	}
	return ids
}

package admin

import (
	"context"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

// AddOptions describes an item saved from an already hosted URL.
type AddOptions struct {
	Category string

	Title       string
	Description string
	Medium      string
	Genre       string

	URL     string
	Gallery []string

	// Created is the creation date of the work. Defaults to today.
	Created string
}

// Add creates an item and files it in a category. Text values are written
// once per configured language.
func (a *Admin) Add(ctx context.Context, opts AddOptions) (content.Item, error) {
	if opts.Category == "" {
		return content.Item{}, usagef("category is required")
	}
	if strings.TrimSpace(opts.Title) == "" {
		return content.Item{}, usagef("title is required")
	}

	langs := a.Config.TextLanguages()
	text := func(v string) content.Text {
		if strings.TrimSpace(v) == "" {
			return content.Text{}
		}
		return content.NewText(v, langs)
	}

	var gallery []string
	for _, g := range opts.Gallery {
		if g = strings.TrimSpace(g); g != "" {
			gallery = append(gallery, g)
		}
	}

	it, err := a.Portfolio.CreateAndFile(ctx, opts.Category, content.Item{
		Title:       text(opts.Title),
		Description: text(opts.Description),
		Medium:      text(opts.Medium),
		Genre:       text(opts.Genre),
		URL:         strings.TrimSpace(opts.URL),
		Gallery:     gallery,
		Created:     opts.Created,
	})
	if err != nil {
		return it, err
	}
	log.FromContext(ctx).Info("item added", "id", it.ID, "category", opts.Category)
	return it, nil
}

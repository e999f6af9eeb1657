package admin

import (
	"context"
	"encoding/json"
	"slices"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
)

type SetOptions struct {
	ID string

	// Assignments are key=value pairs. A value that parses as JSON is used
	// as JSON, anything else as a string. An empty value clears the field.
	// "title.fr=..." sets one language of a multilingual field.
	Assignments []string
}

// textFields may be addressed per language.
var textFields = []string{"title", "description", "medium", "genre"}

// Set applies a partial update to an item.
func (a *Admin) Set(ctx context.Context, opts SetOptions) (content.Item, error) {
	if opts.ID == "" {
		return content.Item{}, usagef("item id is required")
	}
	if len(opts.Assignments) == 0 {
		return content.Item{}, usagef("at least one key=value is required")
	}

	var current *content.Item
	patch := content.Patch{}
	for _, as := range opts.Assignments {
		key, raw, ok := strings.Cut(as, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return content.Item{}, usagef("expected key=value, got %q", as)
		}

		field, lang, perLang := strings.Cut(key, ".")
		if perLang && slices.Contains(textFields, field) {
			if current == nil {
				it, err := a.repo().GetItem(ctx, opts.ID)
				if err != nil {
					return content.Item{}, err
				}
				current = &it
			}
			patch[field] = a.withLanguage(current, patch, field, lang, raw)
			continue
		}
		patch[key] = ParseValue(raw)
	}
	return a.repo().UpdateItem(ctx, opts.ID, patch)
}

// ParseValue interprets a command line value. Empty means clear.
func ParseValue(raw string) any {
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return json.RawMessage(raw)
	}
	return raw
}

// withLanguage returns the multilingual value of field with lang set to
// value. Earlier assignments in the same patch are kept. A plain value is
// first copied into every configured language.
func (a *Admin) withLanguage(it *content.Item, patch content.Patch, field, lang, value string) map[string]string {
	if prev, ok := patch[field].(map[string]string); ok {
		prev[lang] = value
		return prev
	}
	var cur content.Text
	switch field {
	case "title":
		cur = it.Title
	case "description":
		cur = it.Description
	case "medium":
		cur = it.Medium
	case "genre":
		cur = it.Genre
	}
	out := map[string]string{}
	if cur.IsMultilingual() {
		for k, v := range cur.Langs {
			out[k] = v
		}
	} else if cur.Plain != "" {
		for _, l := range a.Config.TextLanguages() {
			out[l] = cur.Plain
		}
	}
	out[lang] = value
	return out
}

package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Item is one creative work. Fields not modelled here are kept in Extra and
// written back unchanged.
type Item struct {
	ID          string   `json:"id"`
	MediaType   string   `json:"mediaType,omitempty"`
	Title       Text     `json:"title,omitzero"`
	Description Text     `json:"description,omitzero"`
	Medium      Text     `json:"medium,omitzero"`
	Genre       Text     `json:"genre,omitzero"`
	URL         string   `json:"url,omitempty"`
	Gallery     []string `json:"gallery,omitempty"`
	Date        string   `json:"date,omitempty"`
	Created     string   `json:"created,omitempty"`
	LegacyID    string   `json:"legacyId,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	Website     string   `json:"website,omitempty"`
	ProjectURL  string   `json:"projectUrl,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type itemAlias Item

func (it Item) MarshalJSON() ([]byte, error) {
	if len(it.Extra) == 0 {
		return marshalJSON(itemAlias(it))
	}
	m, err := it.fieldMap()
	if err != nil {
		return nil, err
	}
	return marshalJSON(m)
}

// UnmarshalJSON accepts any JSON object. A known field holding a value of
// the wrong type is kept verbatim in Extra instead of failing the record.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var a itemAlias
	failed := map[string]bool{}
	if err := json.Unmarshal(data, &a); err != nil {
		a = itemAlias{}
		for k, v := range raw {
			if _, known := lookupField(k); !known {
				continue
			}
			single, _ := json.Marshal(map[string]json.RawMessage{k: v})
			var one itemAlias
			if err := json.Unmarshal(single, &one); err != nil {
				failed[k] = true
				continue
			}
			_ = json.Unmarshal(single, &a)
		}
	}
	*it = Item(a)
	it.Extra = nil
	for k, v := range raw {
		if _, known := lookupField(k); known && !failed[k] {
			continue
		}
		if it.Extra == nil {
			it.Extra = make(map[string]json.RawMessage)
		}
		it.Extra[k] = append(json.RawMessage(nil), v...)
	}
	return nil
}

// isNullOrEmpty reports whether v decodes to the zero value of any field:
// null, "", [] or {}.
func isNullOrEmpty(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case "null", `""`, "[]", "{}":
		return true
	}
	return false
}

// fieldMap renders the item as a JSON object keyed by field name, extras
// included. A set field wins over an extra with the same key.
func (it Item) fieldMap() (map[string]json.RawMessage, error) {
	data, err := marshalJSON(itemAlias(it))
	if err != nil {
		return nil, err
	}
	m := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range it.Extra {
		if cur, ok := m[k]; ok && !isNullOrEmpty(cur) {
			continue
		}
		m[k] = v
	}
	return m, nil
}

// Clone returns a deep copy.
func (it Item) Clone() Item {
	out := it
	out.Title = it.Title.clone()
	out.Description = it.Description.clone()
	out.Medium = it.Medium.clone()
	out.Genre = it.Genre.clone()
	if it.Gallery != nil {
		out.Gallery = append([]string(nil), it.Gallery...)
	}
	if it.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(it.Extra))
		for k, v := range it.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func (t Text) clone() Text {
	if t.Langs == nil {
		return t
	}
	return LangText(t.Langs)
}

// AssetURLs lists the primary URL followed by the gallery, skipping blanks.
func (it Item) AssetURLs() []string {
	var out []string
	if strings.TrimSpace(it.URL) != "" {
		out = append(out, it.URL)
	}
	for _, g := range it.Gallery {
		if strings.TrimSpace(g) != "" {
			out = append(out, g)
		}
	}
	return out
}

// Patch is a partial update keyed by item field name. A nil value clears
// the field. Keys that are not item fields are stored as extras.
type Patch map[string]any

// Apply merges p over a copy of it. The id and media type cannot change.
func (it Item) Apply(p Patch) (Item, error) {
	m, err := it.fieldMap()
	if err != nil {
		return it, err
	}
	for k, v := range p {
		switch k {
		case "id", "mediaType":
			cur := it.ID
			if k == "mediaType" {
				cur = it.MediaType
			}
			if s, ok := v.(string); !ok || s != cur {
				return it, &FieldError{Field: k, Msg: "cannot be changed"}
			}
			continue
		}
		if v == nil {
			delete(m, k)
			continue
		}
		b, err := marshalJSON(v)
		if err != nil {
			return it, &FieldError{Field: k, Msg: err.Error()}
		}
		m[k] = b
	}

	data, err := json.Marshal(m)
	if err != nil {
		return it, err
	}
	var out Item
	if err := json.Unmarshal(data, &out); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) && ute.Field != "" {
			return it, &FieldError{Field: ute.Field, Msg: fmt.Sprintf("expected %s", ute.Type)}
		}
		return it, &FieldError{Field: "patch", Msg: err.Error()}
	}
	return out, nil
}

// MatchField reports whether the named field equals value. Multilingual
// fields match on any language. Unknown or list fields never match.
func (it Item) MatchField(field, value string) bool {
	m, err := it.fieldMap()
	if err != nil {
		return false
	}
	raw, ok := m[field]
	if !ok {
		return false
	}
	return rawMatches(raw, value)
}

func rawMatches(raw json.RawMessage, value string) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x == value
	case map[string]any:
		for _, lv := range x {
			if s, ok := lv.(string); ok && s == value {
				return true
			}
		}
		return false
	case []any:
		return false
	default:
		return string(bytes.TrimSpace(raw)) == value
	}
}

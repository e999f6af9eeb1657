package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Text is a multilingual field. On the wire it is either a plain string or
// an object keyed by language code.
type Text struct {
	Plain string
	Langs map[string]string
}

// PlainText returns a single-language value.
func PlainText(s string) Text { return Text{Plain: s} }

// LangText returns a value keyed by language code.
func LangText(m map[string]string) Text {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Text{Langs: cp}
}

// NewText copies value into every language in langs. With no languages it
// returns a plain value.
func NewText(value string, langs []string) Text {
	if len(langs) == 0 {
		return PlainText(value)
	}
	m := make(map[string]string, len(langs))
	for _, l := range langs {
		m[l] = value
	}
	return Text{Langs: m}
}

func (t Text) IsZero() bool { return t.Plain == "" && len(t.Langs) == 0 }

// IsMultilingual reports whether the value is keyed by language.
func (t Text) IsMultilingual() bool { return t.Langs != nil }

// Get returns the value for lang. Plain values answer every language.
func (t Text) Get(lang string) string {
	if t.Langs == nil {
		return t.Plain
	}
	return t.Langs[lang]
}

// String picks a representative value: the plain value, then "en", then the
// first language in sorted order.
func (t Text) String() string {
	if t.Langs == nil {
		return t.Plain
	}
	if v, ok := t.Langs["en"]; ok {
		return v
	}
	keys := make([]string, 0, len(t.Langs))
	for k := range t.Langs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) == 0 {
		return ""
	}
	return t.Langs[keys[0]]
}

// Matches reports whether v equals the plain value or any language value.
func (t Text) Matches(v string) bool {
	if t.Langs == nil {
		return t.Plain == v
	}
	for _, s := range t.Langs {
		if s == v {
			return true
		}
	}
	return false
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.Langs != nil {
		return marshalJSON(t.Langs)
	}
	return marshalJSON(t.Plain)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*t = Text{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text{Plain: s}
		return nil
	case data[0] == '{':
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("multilingual value: %w", err)
		}
		if m == nil {
			m = map[string]string{}
		}
		*t = Text{Langs: m}
		return nil
	default:
		// Numbers and booleans from hand-edited documents keep their text.
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if _, ok := v.([]any); ok {
			return fmt.Errorf("multilingual value: unexpected array")
		}
		*t = Text{Plain: string(data)}
		return nil
	}
}

// marshalJSON is json.Marshal without HTML escaping, so documents keep
// characters like & and < as written.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

package content_test

import (
	"encoding/json"
	"testing"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/content"
	"github.com/stretchr/testify/require"
)

func TestText_JSONForms(t *testing.T) {
	t.Parallel()

	var plain content.Text
	require.NoError(t, json.Unmarshal([]byte(`"Hello"`), &plain))
	require.False(t, plain.IsMultilingual())
	require.Equal(t, "Hello", plain.Get("fr"))

	var multi content.Text
	require.NoError(t, json.Unmarshal([]byte(`{"en":"Hello","fr":"Bonjour"}`), &multi))
	require.True(t, multi.IsMultilingual())
	require.Equal(t, "Bonjour", multi.Get("fr"))
	require.Empty(t, multi.Get("ht"))
	require.Equal(t, "Hello", multi.String())
	require.True(t, multi.Matches("Bonjour"))
	require.False(t, multi.Matches("Hola"))

	out, err := json.Marshal(multi)
	require.NoError(t, err)
	require.JSONEq(t, `{"en":"Hello","fr":"Bonjour"}`, string(out))

	var empty content.Text
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	require.True(t, empty.IsZero())

	require.Error(t, json.Unmarshal([]byte(`["a"]`), &empty))
}

func TestNewText(t *testing.T) {
	t.Parallel()
	tx := content.NewText("Hi", []string{"en", "fr", "mx", "ht"})
	require.Len(t, tx.Langs, 4)
	require.Equal(t, "Hi", tx.Get("mx"))

	require.Equal(t, content.PlainText("Hi"), content.NewText("Hi", nil))
}

func TestItem_UnknownFieldsSurviveRoundTrip(t *testing.T) {
	t.Parallel()
	in := `{"id":"a","title":{"en":"T"},"pile":true,"dimensions":{"w":3},"url":"https://x.example/a?b=1&c=2"}`

	var it content.Item
	require.NoError(t, json.Unmarshal([]byte(in), &it))
	require.Equal(t, "a", it.ID)
	require.Len(t, it.Extra, 2)

	out, err := json.Marshal(it)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))
	require.Contains(t, string(out), "b=1&c=2")
}

func TestItem_OffTypeFieldsKeptVerbatim(t *testing.T) {
	t.Parallel()
	in := `{"id":5,"title":"T","gallery":"a.png","visibility":false,"medium":["oil"],"url":"https://x.example/a.png"}`

	var it content.Item
	require.NoError(t, json.Unmarshal([]byte(in), &it))
	require.Empty(t, it.ID)
	require.Equal(t, "T", it.Title.String())
	require.Equal(t, "https://x.example/a.png", it.URL)
	require.Empty(t, it.Gallery)
	require.True(t, it.Medium.IsZero())
	require.Len(t, it.Extra, 4)
	require.JSONEq(t, "5", string(it.Extra["id"]))

	out, err := json.Marshal(it)
	require.NoError(t, err)
	require.JSONEq(t, in, string(out))

	// Setting a field replaces the off-type value.
	patched, err := it.Apply(content.Patch{"visibility": "public"})
	require.NoError(t, err)
	require.Equal(t, "public", patched.Visibility)
	require.NotContains(t, patched.Extra, "visibility")
	require.JSONEq(t, `"a.png"`, string(patched.Extra["gallery"]))
}

func TestItem_OmitsEmptyFields(t *testing.T) {
	t.Parallel()
	out, err := json.Marshal(content.Item{ID: "a", Title: content.PlainText("T")})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"a","title":"T"}`, string(out))
}

func TestItem_Apply(t *testing.T) {
	t.Parallel()
	base := content.Item{
		ID:        "a",
		MediaType: "image",
		Title:     content.PlainText("T"),
		Gallery:   []string{"g1"},
		Extra:     map[string]json.RawMessage{"pile": json.RawMessage(`true`)},
	}

	next, err := base.Apply(content.Patch{
		"gallery": []string{"g1", "g2"},
		"pile":    nil,
		"stars":   5,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"g1", "g2"}, next.Gallery)
	require.NotContains(t, next.Extra, "pile")
	require.JSONEq(t, `5`, string(next.Extra["stars"]))
	require.Equal(t, base.Title, next.Title)
	require.Equal(t, []string{"g1"}, base.Gallery, "receiver is not modified")

	_, err = base.Apply(content.Patch{"gallery": 12})
	var fe *content.FieldError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "gallery", fe.Field)
	require.ErrorIs(t, err, content.ErrInvalid)

	_, err = base.Apply(content.Patch{"id": nil})
	require.ErrorIs(t, err, content.ErrInvalid)
}

func TestItem_MatchFieldAndAssets(t *testing.T) {
	t.Parallel()
	it := content.Item{
		ID:      "a",
		Title:   content.LangText(map[string]string{"en": "Sun", "fr": "Soleil"}),
		URL:     "https://example.com/main.png",
		Gallery: []string{"", "https://example.com/g.png"},
	}
	require.True(t, it.MatchField("title", "Soleil"))
	require.True(t, it.MatchField("url", "https://example.com/main.png"))
	require.False(t, it.MatchField("gallery", "https://example.com/g.png"))
	require.False(t, it.MatchField("genre", ""))

	require.Equal(t, []string{"https://example.com/main.png", "https://example.com/g.png"}, it.AssetURLs())
}

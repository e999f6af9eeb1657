package content

// fieldKind tells the SQL adapter how a field is stored in its column.
type fieldKind int

const (
	kindString fieldKind = iota // plain TEXT
	kindText                    // multilingual value, JSON text
	kindList                    // string list, JSON text
)

type itemField struct {
	Name   string // JSON name on the wire and in patches
	Column string // column in the items table
	Kind   fieldKind
}

// itemFields is the single mapping between item JSON names and relational
// columns. Anything not listed here travels in the extra column.
var itemFields = []itemField{
	{Name: "id", Column: "id", Kind: kindString},
	{Name: "mediaType", Column: "media_type", Kind: kindString},
	{Name: "title", Column: "title", Kind: kindText},
	{Name: "description", Column: "description", Kind: kindText},
	{Name: "medium", Column: "medium", Kind: kindText},
	{Name: "genre", Column: "genre", Kind: kindText},
	{Name: "url", Column: "url", Kind: kindString},
	{Name: "gallery", Column: "gallery", Kind: kindList},
	{Name: "date", Column: "date", Kind: kindString},
	{Name: "created", Column: "created", Kind: kindString},
	{Name: "legacyId", Column: "legacy_id", Kind: kindString},
	{Name: "visibility", Column: "visibility", Kind: kindString},
	{Name: "website", Column: "website", Kind: kindString},
	{Name: "projectUrl", Column: "project_url", Kind: kindString},
}

const extraColumn = "extra"

var fieldsByName = func() map[string]itemField {
	m := make(map[string]itemField, len(itemFields))
	for _, f := range itemFields {
		m[f.Name] = f
	}
	return m
}()

func lookupField(name string) (itemField, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// ColumnName maps an item field name to its relational column. Unknown
// fields live in the extra column and report false.
func ColumnName(field string) (string, bool) {
	f, ok := lookupField(field)
	return f.Column, ok
}

// FieldName maps a relational column back to the item field name.
func FieldName(column string) (string, bool) {
	for _, f := range itemFields {
		if f.Column == column {
			return f.Name, true
		}
	}
	return "", false
}

func itemColumns() []string {
	cols := make([]string, 0, len(itemFields)+1)
	for _, f := range itemFields {
		cols = append(cols, f.Column)
	}
	return append(cols, extraColumn)
}

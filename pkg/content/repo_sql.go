package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

// Dialect selects the SQL flavour a SQLRepo speaks.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a driver name to a dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pq", "supabase":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", &FieldError{Field: "driver", Msg: fmt.Sprintf("unsupported sql driver %q", driver)}
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// SQLRepo keeps items in one table with a media_type column and category
// ref lists in a second table with one structured refs column.
type SQLRepo struct {
	DB      *sql.DB
	Dialect Dialect
	Catalog *Catalog
	Clock   internal.Clock
}

var _ Repository = (*SQLRepo)(nil)

// NewSQLRepo wraps an open database. Call Migrate before first use.
func NewSQLRepo(db *sql.DB, dialect Dialect, catalog *Catalog) *SQLRepo {
	return &SQLRepo{DB: db, Dialect: dialect, Catalog: catalog, Clock: internal.RealClock{}}
}

// OpenSQLRepo opens the database named by driver and dsn, applies pending
// migrations and returns the repository.
func OpenSQLRepo(ctx context.Context, driver, dsn string, catalog *Catalog) (*SQLRepo, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, newBackendError("sql", "open", "", err)
	}
	if dialect == DialectSQLite {
		// A single connection keeps transactions serialised.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, newBackendError("sql", "ping", "", err)
	}

	r := NewSQLRepo(db, dialect, catalog)
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLRepo) Close() error { return r.DB.Close() }

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *SQLRepo) rebind(q string) string {
	if r.Dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (r *SQLRepo) now() string { return internal.ISO8601(r.Clock) }

func sqlErr(op, table string, err error) error {
	return newBackendError("sql", op, table, err)
}

///////////////////////////////////////////////////////////////////////////////
// Row mapping
///////////////////////////////////////////////////////////////////////////////

var selectItemCols = strings.Join(itemColumns(), ", ")

// encodeItem renders it as column values in itemColumns order.
func encodeItem(it Item) ([]any, error) {
	m, err := it.fieldMap()
	if err != nil {
		return nil, err
	}
	vals := make([]any, 0, len(itemFields)+1)
	for _, f := range itemFields {
		raw, ok := m[f.Name]
		delete(m, f.Name)
		if !ok {
			vals = append(vals, nil)
			continue
		}
		switch f.Kind {
		case kindString:
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				s = string(raw)
			}
			vals = append(vals, s)
		default:
			vals = append(vals, string(raw))
		}
	}
	if len(m) == 0 {
		return append(vals, nil), nil
	}
	extra, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(vals, string(extra)), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanItem reads one row selected with selectItemCols.
func scanItem(row rowScanner) (Item, error) {
	cols := make([]sql.NullString, len(itemFields)+1)
	dest := make([]any, len(cols))
	for i := range cols {
		dest[i] = &cols[i]
	}
	if err := row.Scan(dest...); err != nil {
		return Item{}, err
	}

	m := make(map[string]json.RawMessage, len(itemFields))
	for i, f := range itemFields {
		v := cols[i]
		if !v.Valid {
			continue
		}
		switch f.Kind {
		case kindString:
			b, err := json.Marshal(v.String)
			if err != nil {
				return Item{}, err
			}
			m[f.Name] = b
		default:
			if strings.TrimSpace(v.String) != "" {
				m[f.Name] = json.RawMessage(v.String)
			}
		}
	}
	if extra := cols[len(itemFields)]; extra.Valid && strings.TrimSpace(extra.String) != "" {
		var em map[string]json.RawMessage
		if err := json.Unmarshal([]byte(extra.String), &em); err != nil {
			return Item{}, fmt.Errorf("decode extra column: %w", err)
		}
		for k, v := range em {
			if _, taken := m[k]; !taken {
				m[k] = v
			}
		}
	}

	data, err := json.Marshal(m)
	if err != nil {
		return Item{}, err
	}
	var it Item
	if err := json.Unmarshal(data, &it); err != nil {
		return Item{}, fmt.Errorf("decode item row: %w", err)
	}
	return it, nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SQLRepo) encodeRefs(refs []string) (any, error) {
	refs = copyRefs(refs)
	if r.Dialect == DialectPostgres {
		return pq.Array(refs), nil
	}
	b, err := json.Marshal(refs)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

///////////////////////////////////////////////////////////////////////////////
// Items
///////////////////////////////////////////////////////////////////////////////

func (r *SQLRepo) ListItems(ctx context.Context, mediaType string) ([]Item, error) {
	if _, err := r.Catalog.MediaType(mediaType); err != nil {
		return nil, err
	}
	rows, err := r.DB.QueryContext(ctx,
		r.rebind("SELECT "+selectItemCols+" FROM items WHERE media_type = ? ORDER BY id"),
		mediaType)
	if err != nil {
		return nil, sqlErr("list items", "items", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, sqlErr("list items", "items", err)
	}
	return items, nil
}

func (r *SQLRepo) getItem(ctx context.Context, q querier, id string) (Item, error) {
	row := q.QueryRowContext(ctx, r.rebind("SELECT "+selectItemCols+" FROM items WHERE id = ?"), id)
	it, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, &ItemNotFoundError{ID: id}
		}
		return Item{}, sqlErr("get item", "items", err)
	}
	return it, nil
}

func (r *SQLRepo) GetItem(ctx context.Context, id string) (Item, error) {
	return r.getItem(ctx, r.DB, id)
}

func (r *SQLRepo) CreateItem(ctx context.Context, mediaType string, item Item) (Item, error) {
	if _, err := r.Catalog.MediaType(mediaType); err != nil {
		return Item{}, err
	}
	it := item.Clone()
	if it.ID == "" {
		it.ID = newItemID()
	} else if _, err := r.GetItem(ctx, it.ID); err == nil {
		return Item{}, &FieldError{Field: "id", Msg: fmt.Sprintf("%s already exists", it.ID)}
	} else if !IsNotFound(err) {
		return Item{}, err
	}
	it.MediaType = mediaType

	vals, err := encodeItem(it)
	if err != nil {
		return Item{}, fmt.Errorf("encode item: %w", err)
	}
	cols := itemColumns()
	q := fmt.Sprintf("INSERT INTO items (%s, updated_at) VALUES (%s)",
		strings.Join(cols, ", "), placeholders(len(cols)+1))
	if _, err := r.DB.ExecContext(ctx, r.rebind(q), append(vals, r.now())...); err != nil {
		return Item{}, sqlErr("insert item", "items", err)
	}
	log.FromContext(ctx).Info("item created", "id", it.ID, "mediaType", mediaType)
	return it, nil
}

func (r *SQLRepo) UpdateItem(ctx context.Context, id string, patch Patch) (Item, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, sqlErr("begin", "items", err)
	}
	defer tx.Rollback()

	cur, err := r.getItem(ctx, tx, id)
	if err != nil {
		return Item{}, err
	}
	next, err := cur.Apply(patch)
	if err != nil {
		return Item{}, fmt.Errorf("update item %s: %w", id, err)
	}
	vals, err := encodeItem(next)
	if err != nil {
		return Item{}, fmt.Errorf("encode item: %w", err)
	}

	// id is the first column and stays fixed.
	cols := itemColumns()[1:]
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "updated_at = ?")
	args := append(vals[1:], r.now(), id)
	q := "UPDATE items SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := tx.ExecContext(ctx, r.rebind(q), args...); err != nil {
		return Item{}, sqlErr("update item", "items", err)
	}
	if err := tx.Commit(); err != nil {
		return Item{}, sqlErr("commit", "items", err)
	}
	return next, nil
}

func (r *SQLRepo) DeleteItem(ctx context.Context, id string) (Item, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, sqlErr("begin", "items", err)
	}
	defer tx.Rollback()

	cur, err := r.getItem(ctx, tx, id)
	if err != nil {
		return Item{}, err
	}
	if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM items WHERE id = ?"), id); err != nil {
		return Item{}, sqlErr("delete item", "items", err)
	}
	if err := tx.Commit(); err != nil {
		return Item{}, sqlErr("commit", "items", err)
	}
	log.FromContext(ctx).Info("item deleted", "id", id, "mediaType", cur.MediaType)
	return cur, nil
}

// FindItemByField filters plain columns in SQL. Multilingual and extra
// fields are matched in Go after listing each partition.
func (r *SQLRepo) FindItemByField(ctx context.Context, field, value string) (Item, error) {
	f, known := lookupField(field)
	for _, m := range r.Catalog.MediaTypes {
		if known && f.Kind == kindString {
			q := "SELECT " + selectItemCols + " FROM items WHERE media_type = ? AND " + f.Column + " = ? ORDER BY id LIMIT 1"
			it, err := scanItem(r.DB.QueryRowContext(ctx, r.rebind(q), m.ID, value))
			if err == nil {
				return it, nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return Item{}, sqlErr("find item", "items", err)
			}
			continue
		}
		items, err := r.ListItems(ctx, m.ID)
		if err != nil {
			return Item{}, err
		}
		for _, it := range items {
			if it.MatchField(field, value) {
				return it, nil
			}
		}
	}
	return Item{}, &ItemNotFoundError{ID: field + "=" + value}
}

///////////////////////////////////////////////////////////////////////////////
// Category refs
///////////////////////////////////////////////////////////////////////////////

// readRefs loads a ref list. Inside a postgres transaction the row is locked
// until commit.
func (r *SQLRepo) readRefs(ctx context.Context, q querier, categoryID string, forUpdate bool) ([]string, error) {
	query := "SELECT refs FROM category_refs WHERE category_id = ?"
	if forUpdate && r.Dialect == DialectPostgres {
		query += " FOR UPDATE"
	}
	row := q.QueryRowContext(ctx, r.rebind(query), categoryID)

	var refs []string
	var err error
	if r.Dialect == DialectPostgres {
		err = row.Scan(pq.Array(&refs))
	} else {
		var raw string
		if err = row.Scan(&raw); err == nil && strings.TrimSpace(raw) != "" {
			if jerr := json.Unmarshal([]byte(raw), &refs); jerr != nil {
				return nil, sqlErr("decode refs", "category_refs", jerr)
			}
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, sqlErr("get refs", "category_refs", err)
	}
	return copyRefs(refs), nil
}

func (r *SQLRepo) writeRefs(ctx context.Context, q querier, categoryID string, refs []string) error {
	v, err := r.encodeRefs(refs)
	if err != nil {
		return sqlErr("encode refs", "category_refs", err)
	}
	_, err = q.ExecContext(ctx, r.rebind(`
		INSERT INTO category_refs (category_id, refs, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (category_id) DO UPDATE SET refs = excluded.refs, updated_at = excluded.updated_at`),
		categoryID, v, r.now())
	if err != nil {
		return sqlErr("write refs", "category_refs", err)
	}
	return nil
}

// inTx runs fn in a transaction and commits when it returns nil.
func (r *SQLRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return sqlErr("begin", "category_refs", err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return sqlErr("commit", "category_refs", err)
	}
	return nil
}

func (r *SQLRepo) GetRefs(ctx context.Context, categoryID string) ([]string, error) {
	if _, err := r.Catalog.Category(categoryID); err != nil {
		return nil, err
	}
	return r.readRefs(ctx, r.DB, categoryID, false)
}

// GetResolvedItems loads the ref list, then the referenced items in one IN
// query restricted to the category's media type.
func (r *SQLRepo) GetResolvedItems(ctx context.Context, categoryID string) ([]Item, error) {
	cat, err := r.Catalog.Category(categoryID)
	if err != nil {
		return nil, err
	}
	refs, err := r.readRefs(ctx, r.DB, categoryID, false)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return []Item{}, nil
	}

	sorted := slices.Clone(refs)
	slices.Sort(sorted)
	ids := slices.Compact(sorted)
	args := make([]any, 0, len(ids)+1)
	args = append(args, cat.MediaType)
	for _, id := range ids {
		args = append(args, id)
	}
	q := "SELECT " + selectItemCols + " FROM items WHERE media_type = ? AND id IN (" + placeholders(len(ids)) + ")"
	rows, err := r.DB.QueryContext(ctx, r.rebind(q), args...)
	if err != nil {
		return nil, sqlErr("resolve refs", "items", err)
	}
	items, err := scanItems(rows)
	if err != nil {
		return nil, sqlErr("resolve refs", "items", err)
	}
	return resolveRefs(ctx, categoryID, refs, indexItems(items)), nil
}

func (r *SQLRepo) GetAllCategorizedItems(ctx context.Context) (map[string][]Item, error) {
	out := make(map[string][]Item, len(r.Catalog.Categories))
	for _, cat := range r.Catalog.Categories {
		items, err := r.GetResolvedItems(ctx, cat.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve category %s: %w", cat.ID, err)
		}
		out[cat.ID] = items
	}
	return out, nil
}

func (r *SQLRepo) AddRef(ctx context.Context, id, categoryID string) (bool, error) {
	if _, err := r.Catalog.Category(categoryID); err != nil {
		return false, err
	}
	var added bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		refs, err := r.readRefs(ctx, tx, categoryID, true)
		if err != nil {
			return err
		}
		if slices.Contains(refs, id) {
			return nil
		}
		added = true
		return r.writeRefs(ctx, tx, categoryID, append(refs, id))
	})
	if err != nil {
		return false, fmt.Errorf("add ref %s to %s: %w", id, categoryID, err)
	}
	return added, nil
}

func (r *SQLRepo) RemoveRef(ctx context.Context, id, categoryID string) (bool, error) {
	if _, err := r.Catalog.Category(categoryID); err != nil {
		return false, err
	}
	var removed bool
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		refs, err := r.readRefs(ctx, tx, categoryID, true)
		if err != nil {
			return err
		}
		i := slices.Index(refs, id)
		if i < 0 {
			return nil
		}
		removed = true
		return r.writeRefs(ctx, tx, categoryID, slices.Delete(refs, i, i+1))
	})
	if err != nil {
		return false, fmt.Errorf("remove ref %s from %s: %w", id, categoryID, err)
	}
	return removed, nil
}

func (r *SQLRepo) SetRefs(ctx context.Context, categoryID string, ids []string) error {
	if _, err := r.Catalog.Category(categoryID); err != nil {
		return err
	}
	if err := r.writeRefs(ctx, r.DB, categoryID, ids); err != nil {
		return fmt.Errorf("set refs for %s: %w", categoryID, err)
	}
	return nil
}

// ChangeCategory removes and appends in one transaction.
func (r *SQLRepo) ChangeCategory(ctx context.Context, id, from, to string) error {
	if _, _, err := moveTargets(r.Catalog, id, from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		src, err := r.readRefs(ctx, tx, from, true)
		if err != nil {
			return err
		}
		i := slices.Index(src, id)
		if i < 0 {
			return &RefNotFoundError{ID: id, Category: from}
		}
		if err := r.writeRefs(ctx, tx, from, slices.Delete(src, i, i+1)); err != nil {
			return err
		}
		dst, err := r.readRefs(ctx, tx, to, true)
		if err != nil {
			return err
		}
		if slices.Contains(dst, id) {
			return nil
		}
		return r.writeRefs(ctx, tx, to, append(dst, id))
	})
	if err != nil {
		return err
	}
	log.FromContext(ctx).Info("item moved", "id", id, "from", from, "to", to)
	return nil
}

func (r *SQLRepo) FindCategoryForItem(ctx context.Context, id string) (string, bool, error) {
	for _, cat := range r.Catalog.Categories {
		refs, err := r.readRefs(ctx, r.DB, cat.ID, false)
		if err != nil {
			return "", false, err
		}
		if slices.Contains(refs, id) {
			return cat.ID, true, nil
		}
	}
	return "", false, nil
}

package content

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/log"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every schema migration for the repo's dialect that has
// not been applied yet. Applied files are tracked in schema_migrations.
func (r *SQLRepo) Migrate(ctx context.Context) error {
	lg := log.FromContext(ctx)

	if _, err := r.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`); err != nil {
		return newBackendError("sql", "ensure migrations table", "schema_migrations", err)
	}

	applied, err := r.appliedMigrations(ctx)
	if err != nil {
		return newBackendError("sql", "list applied migrations", "schema_migrations", err)
	}

	dir := path.Join("migrations", string(r.Dialect))
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("no migrations for dialect %q: %w", r.Dialect, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		if applied[name] {
			lg.Debug("migration already applied", "file", name)
			continue
		}
		if err := r.applyMigration(ctx, path.Join(dir, name), name); err != nil {
			return newBackendError("sql", "apply migration", name, err)
		}
		lg.Info("migration applied", "file", name, "dialect", r.Dialect)
	}
	return nil
}

func (r *SQLRepo) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT filename FROM schema_migrations ORDER BY filename")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

func (r *SQLRepo) applyMigration(ctx context.Context, file, name string) error {
	content, err := fs.ReadFile(migrationsFS, file)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("execute sql: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		r.rebind("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)"),
		name, internal.ISO8601(r.Clock)); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

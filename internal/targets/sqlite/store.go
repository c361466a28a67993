// Package sqlite is a catalog target backed by a local SQLite library
// database. It stands in for a media server when tags are consumed by other
// tooling, and gives the reconciler a durable target for offline runs.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ellisd4/tagsync/pkg/catalogs"
	"github.com/ellisd4/tagsync/pkg/constants"
	"github.com/ellisd4/tagsync/pkg/errors"
	"github.com/ellisd4/tagsync/pkg/logging"
)

// ServiceName identifies the store in errors and logs.
const ServiceName = "sqlite"

//go:embed schema.sql
var schema string

// Config holds the database location.
type Config struct {
	Path string
}

// DefaultConfig returns the config for ~/.tagsync/library.db.
func DefaultConfig() Config {
	return Config{Path: constants.DefaultDatabasePath}
}

// Store implements catalogs.Target over a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

var (
	_ catalogs.Target = (*Store)(nil)
	_ catalogs.Pinger = (*Store)(nil)
)

// Open creates the data directory if needed, opens the database and applies
// the schema.
func Open(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.NewConfigError(ServiceName, "database", "must be set")
	}
	path, err := expandHome(cfg.Path)
	if err != nil {
		return nil, errors.WrapIO("resolve", cfg.Path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("mkdir", filepath.Dir(path), err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.WrapCatalog(ServiceName, "open", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.WrapCatalog(ServiceName, "open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapCatalog(ServiceName, "apply schema", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements catalogs.Named.
func (s *Store) Name() string { return ServiceName }

// Path returns the resolved database path.
func (s *Store) Path() string { return s.path }

// Ping implements catalogs.Pinger and returns the SQLite library version.
func (s *Store) Ping(ctx context.Context) (string, error) {
	var version string
	if err := s.db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&version); err != nil {
		return "", errors.WrapCatalog(ServiceName, "ping", err)
	}
	return version, nil
}

// FetchItems implements catalogs.Target. Items come back in insertion order.
func (s *Store) FetchItems(ctx context.Context) ([]catalogs.TargetItem, error) {
	items, err := s.fetchItems(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.WrapCanceled(ctxErr)
		}
		return nil, errors.WrapCatalog(ServiceName, "fetch items", err)
	}
	logging.FromContext(ctx).Debug().Int("items", len(items)).Str("path", s.path).Msg("Fetched library items")
	return items, nil
}

func (s *Store) fetchItems(ctx context.Context) ([]catalogs.TargetItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM items ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	var items []catalogs.TargetItem
	index := make(map[string]int)
	for rows.Next() {
		var it catalogs.TargetItem
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			rows.Close()
			return nil, err
		}
		it.ExternalIDs = catalogs.ExternalIDs{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	idRows, err := s.db.QueryContext(ctx, `SELECT item_id, scheme, value FROM item_ids`)
	if err != nil {
		return nil, err
	}
	for idRows.Next() {
		var itemID, scheme, value string
		if err := idRows.Scan(&itemID, &scheme, &value); err != nil {
			idRows.Close()
			return nil, err
		}
		if i, ok := index[itemID]; ok {
			items[i].ExternalIDs[catalogs.Scheme(scheme)] = value
		}
	}
	if err := idRows.Err(); err != nil {
		idRows.Close()
		return nil, err
	}
	idRows.Close()

	tagRows, err := s.db.QueryContext(ctx, `SELECT item_id, label FROM item_tags ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var itemID, label string
		if err := tagRows.Scan(&itemID, &label); err != nil {
			return nil, err
		}
		if i, ok := index[itemID]; ok {
			items[i].Tags = append(items[i].Tags, label)
		}
	}
	return items, tagRows.Err()
}

type stmt struct {
	query string
	args  []any
}

// PutItem inserts or replaces an item with its identifiers and tags.
func (s *Store) PutItem(ctx context.Context, item catalogs.TargetItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return errors.NewValidationError("id", item.ID, "item id must be set")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapCatalog(ServiceName, "put item", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []stmt{
		{`INSERT INTO items (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`, []any{item.ID, item.Name}},
		{`DELETE FROM item_ids WHERE item_id = ?`, []any{item.ID}},
		{`DELETE FROM item_tags WHERE item_id = ?`, []any{item.ID}},
	}
	for scheme, value := range item.ExternalIDs {
		stmts = append(stmts, stmt{`INSERT OR REPLACE INTO item_ids (item_id, scheme, value) VALUES (?, ?, ?)`, []any{item.ID, string(scheme.Normalize()), value}})
	}
	for _, label := range item.Tags {
		stmts = append(stmts, stmt{`INSERT OR IGNORE INTO item_tags (item_id, label, folded) VALUES (?, ?, ?)`, []any{item.ID, label, catalogs.Fold(label)}})
	}

	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.query, st.args...); err != nil {
			return errors.WrapCatalog(ServiceName, "put item", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapCatalog(ServiceName, "put item", err)
	}
	return nil
}

// DeleteItem removes an item and everything attached to it.
func (s *Store) DeleteItem(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, itemID)
	if err != nil {
		return errors.WrapCatalog(ServiceName, "delete item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFoundError("item", itemID)
	}
	return nil
}

// AddTag implements catalogs.Mutator. Adding a tag the item already carries,
// in any spelling, succeeds without a change.
func (s *Store) AddTag(ctx context.Context, itemID, label string) error {
	if err := s.requireItem(ctx, itemID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_tags (item_id, label, folded) VALUES (?, ?, ?)`,
		itemID, label, catalogs.Fold(label))
	return err
}

// RemoveTag implements catalogs.Mutator.
func (s *Store) RemoveTag(ctx context.Context, itemID, label string) error {
	if err := s.requireItem(ctx, itemID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM item_tags WHERE item_id = ? AND folded = ?`,
		itemID, catalogs.Fold(label))
	return err
}

func (s *Store) requireItem(ctx context.Context, itemID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError("item", itemID)
	}
	return err
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

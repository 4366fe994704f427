// Package sqlite provides a concrete implementation of the
// persistence.CatalogInteractor interface backed by SQLite. Collections are
// tables holding one JSON document per row, and index specs are realized as
// expression indexes over json_extract, so unique constraints are enforced by
// the engine itself.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/asaidimu/go-hati/core/persistence"
	"github.com/asaidimu/go-hati/core/schema"
	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const registryTable = "_hati_indexes"

// SQLiteCatalog is a concrete implementation of the persistence.CatalogInteractor
// interface for SQLite. Each collection is a table with an _id primary key and
// a JSON document column. Because SQLite's own catalog does not record which
// JSON paths an expression index covers in a recoverable form, the catalog
// keeps a registry table mapping index names to their spec, and ListIndexes
// reads from that registry.
type SQLiteCatalog struct {
	db     *sql.DB
	logger *zap.Logger
}

// Ensure SQLiteCatalog implements the persistence.CatalogInteractor interface.
var _ persistence.CatalogInteractor = (*SQLiteCatalog)(nil)

// NewSQLiteCatalog creates a new catalog over an open SQLite database and
// initializes the index registry table.
func NewSQLiteCatalog(db *sql.DB, logger *zap.Logger) (*SQLiteCatalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	createRegistry := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		collection TEXT NOT NULL,
		name TEXT NOT NULL,
		spec TEXT NOT NULL,
		PRIMARY KEY (collection, name)
	)`, registryTable)
	if _, err := db.Exec(createRegistry); err != nil {
		return nil, fmt.Errorf("failed to initialize index registry: %w", err)
	}

	return &SQLiteCatalog{db: db, logger: logger}, nil
}

// CollectionExists checks the sqlite_master catalog for the collection table.
func (c *SQLiteCatalog) CollectionExists(ctx context.Context, collection string) (bool, error) {
	var name string
	err := c.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, collection).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query sqlite_master: %w", err)
	}
	return true, nil
}

// CreateCollection creates the backing table for a schema's collection.
func (c *SQLiteCatalog) CreateCollection(ctx context.Context, s *schema.SchemaDefinition) error {
	collection := s.CollectionName()
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		_id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	)`, collection)

	c.logger.Debug("Creating collection table", zap.String("collection", collection))

	if _, err := c.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create collection %q: %w", collection, err)
	}
	return nil
}

// DropCollection removes a collection table and its registry entries.
func (c *SQLiteCatalog) DropCollection(ctx context.Context, collection string) error {
	if _, err := c.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, collection)); err != nil {
		return fmt.Errorf("failed to drop collection %q: %w", collection, err)
	}
	query := fmt.Sprintf(`DELETE FROM %q WHERE collection = ?`, registryTable)
	if _, err := c.db.ExecContext(ctx, query, collection); err != nil {
		return fmt.Errorf("failed to clear index registry for %q: %w", collection, err)
	}
	return nil
}

// ListIndexes returns the live index catalog of a collection. The primary key
// index on _id always exists on the backing table, so it is reported first
// under the store's conventional name.
func (c *SQLiteCatalog) ListIndexes(ctx context.Context, collection string) ([]persistence.CatalogEntry, error) {
	entries := []persistence.CatalogEntry{
		{
			Name: "_id_",
			Spec: schema.IndexSpec{Keys: []schema.IndexKey{{Field: schema.DefaultPrimaryKey, Direction: schema.Ascending}}},
		},
	}

	query := fmt.Sprintf(`SELECT name, spec FROM %q WHERE collection = ? ORDER BY rowid`, registryTable)
	rows, err := c.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query index registry: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, rawSpec string
		if err := rows.Scan(&name, &rawSpec); err != nil {
			return nil, fmt.Errorf("failed to scan index registry row: %w", err)
		}
		var spec schema.IndexSpec
		if err := json.Unmarshal([]byte(rawSpec), &spec); err != nil {
			return nil, fmt.Errorf("corrupt spec for index %q: %w", name, err)
		}
		entries = append(entries, persistence.CatalogEntry{Name: name, Spec: spec})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading index registry: %w", err)
	}
	return entries, nil
}

// CreateIndex creates one expression index over the collection's JSON column.
// Re-creating an identical index is a no-op; a same-keyed index recorded with
// different options is an error, never a silent success. The SQL index and
// the registry row still use IF NOT EXISTS semantics so concurrent identical
// creates cannot fail each other.
func (c *SQLiteCatalog) CreateIndex(ctx context.Context, collection string, spec schema.IndexSpec) error {
	if len(spec.Keys) == 0 {
		return fmt.Errorf("cannot create an index with no keys on %q", collection)
	}

	indexName := spec.IndexName()

	// The generated name is a pure function of the key sequence, so a
	// registry row under the same name is a same-keyed index.
	existing, found, err := c.registrySpec(ctx, collection, indexName)
	if err != nil {
		return err
	}
	if found {
		if !existing.Equal(spec) {
			return fmt.Errorf("index %q on %q already exists with different options", indexName, collection)
		}
		return nil
	}

	sqlName := fmt.Sprintf("idx_%s_%s", collection, indexName)

	columns := make([]string, 0, len(spec.Keys))
	for _, key := range spec.Keys {
		expr := fmt.Sprintf("json_extract(data, '$.%s')", key.Field)
		if key.Field == schema.DefaultPrimaryKey {
			expr = "_id"
		}
		if key.Direction == schema.Descending {
			expr += " DESC"
		}
		columns = append(columns, expr)
	}

	unique := ""
	if spec.Unique {
		unique = "UNIQUE "
	}
	createIndex := fmt.Sprintf(`CREATE %sINDEX IF NOT EXISTS %q ON %q (%s)`,
		unique, sqlName, collection, strings.Join(columns, ", "))

	c.logger.Debug("Executing SQL CREATE INDEX", zap.String("sql", createIndex))

	if _, err := c.db.ExecContext(ctx, createIndex); err != nil {
		c.logger.Error("Failed to execute CREATE INDEX", zap.Error(err), zap.String("sql", createIndex))
		return fmt.Errorf("failed to create index %q: %w", sqlName, err)
	}

	rawSpec, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode spec for index %q: %w", indexName, err)
	}
	registry := fmt.Sprintf(`INSERT OR IGNORE INTO %q (collection, name, spec) VALUES (?, ?, ?)`, registryTable)
	if _, err := c.db.ExecContext(ctx, registry, collection, indexName, string(rawSpec)); err != nil {
		return fmt.Errorf("failed to record index %q in registry: %w", indexName, err)
	}
	return nil
}

// registrySpec looks one index up in the registry by its generated name.
func (c *SQLiteCatalog) registrySpec(ctx context.Context, collection, name string) (schema.IndexSpec, bool, error) {
	query := fmt.Sprintf(`SELECT spec FROM %q WHERE collection = ? AND name = ?`, registryTable)
	var rawSpec string
	err := c.db.QueryRowContext(ctx, query, collection, name).Scan(&rawSpec)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.IndexSpec{}, false, nil
	}
	if err != nil {
		return schema.IndexSpec{}, false, fmt.Errorf("failed to query index registry: %w", err)
	}
	var spec schema.IndexSpec
	if err := json.Unmarshal([]byte(rawSpec), &spec); err != nil {
		return schema.IndexSpec{}, false, fmt.Errorf("corrupt spec for index %q: %w", name, err)
	}
	return spec, true, nil
}

// InsertDocument stores a document in a collection, generating an _id when the
// document has none. Unique index violations surface as DuplicateKeyError.
func (c *SQLiteCatalog) InsertDocument(ctx context.Context, collection string, doc schema.Document) (string, error) {
	id, _ := doc[schema.DefaultPrimaryKey].(string)
	if id == "" {
		id = uuid.New().String()
		doc[schema.DefaultPrimaryKey] = id
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	insert := fmt.Sprintf(`INSERT INTO %q (_id, data) VALUES (?, ?)`, collection)
	if _, err := c.db.ExecContext(ctx, insert, id, string(data)); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
			return "", &persistence.DuplicateKeyError{Collection: collection, Err: err}
		}
		return "", fmt.Errorf("failed to insert document into %q: %w", collection, err)
	}
	return id, nil
}

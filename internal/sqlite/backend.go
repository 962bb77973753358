// Package sqlite implements the identifier index store on a SQLite database.
// The database file lives in the configured data directory; the identifier
// table is the source of truth and the ownership table is a derived index
// maintained in the same transaction as every identifier write.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// dbFileName is the SQLite database file created inside DataDir.
const dbFileName = "pidsearch.db"

// store_meta keys.
const (
	metaKeyStoreID       = "store_id"
	metaKeySchemaVersion = "schema_version"
)

const schemaVersion = "1"

// connPragmas are applied to the connection on attach. WAL keeps readers
// unblocked during writes; the busy timeout covers writer contention.
var connPragmas = []string{
	"PRAGMA busy_timeout = 5000;",
	"PRAGMA journal_mode = WAL;",
	"PRAGMA synchronous = NORMAL;",
}

// Backend implements types.Store over a SQLite database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]types.Table
}

// NewBackend returns an unattached Backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database under config.DataDir, creating the directory,
// the schema, and the store identity record as needed. The database persists
// across attach cycles.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, dbFileName))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// modernc.org/sqlite allows one writer; a single connection avoids
	// SQLITE_BUSY between the accessors and the worker.
	db.SetMaxOpenConns(1)

	for _, pragma := range connPragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("applying pragma: %w", err)
		}
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating indexes: %w", err)
		}
	}
	if err := ensureStoreMeta(db); err != nil {
		db.Close()
		return fmt.Errorf("initializing store metadata: %w", err)
	}

	b.config = config
	b.db = db
	b.tables = map[string]types.Table{
		types.TableIdentifiers: &identifiersTable{backend: b},
		types.TableOwnership:   &ownershipTable{backend: b},
		types.TableQueue:       &queueTable{backend: b},
		types.TableShoulders:   &shouldersTable{backend: b},
	}
	b.attached = true
	return nil
}

// ensureStoreMeta writes the schema version and a fresh store ID on first
// attach. Both inserts are no-ops when the rows already exist.
func ensureStoreMeta(db *sql.DB) error {
	insert := `INSERT OR IGNORE INTO store_meta (key, value) VALUES (?, ?)`
	if _, err := db.Exec(insert, metaKeySchemaVersion, schemaVersion); err != nil {
		return fmt.Errorf("writing schema version: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating store ID: %w", err)
	}
	if _, err := db.Exec(insert, metaKeyStoreID, id.String()); err != nil {
		return fmt.Errorf("writing store ID: %w", err)
	}
	return nil
}

// Detach closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	b.tables = nil
	b.attached = false
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// GetTable returns the named table accessor.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	table, ok := b.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, name)
	}
	return table, nil
}

// StoreID returns the UUID assigned to this store on first attach.
func (b *Backend) StoreID() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return "", types.ErrStoreDetached
	}
	var id string
	query := `SELECT value FROM store_meta WHERE key = ?`
	if err := b.db.QueryRow(query, metaKeyStoreID).Scan(&id); err != nil {
		return "", fmt.Errorf("reading store ID: %w", err)
	}
	return id, nil
}

// DataDir returns the configured data directory, with the same default the
// backend applied on attach.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.config.DataDir == "" {
		return "."
	}
	return b.config.DataDir
}

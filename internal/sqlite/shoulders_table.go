package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// shouldersTable accesses the shoulder registry. Shoulders are keyed by
// prefix; Set upserts in a single statement since no derived rows depend on
// them.
type shouldersTable struct {
	backend *Backend
}

var _ types.Table = (*shouldersTable)(nil)

const shoulderColumns = `prefix, type, name, minter, datacenter, crossref_enabled, ` +
	`is_test, is_supershoulder, active, manager`

// Get returns the shoulder registered under the given prefix.
func (st *shouldersTable) Get(id string) (any, error) {
	st.backend.mu.RLock()
	defer st.backend.mu.RUnlock()

	if !st.backend.attached {
		return nil, types.ErrStoreDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	query := `SELECT ` + shoulderColumns + ` FROM shoulders WHERE prefix = ?`
	row := st.backend.db.QueryRow(query, id)
	shoulder, err := hydrateShoulder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying shoulder: %w", err)
	}
	return shoulder, nil
}

// Set registers or updates a shoulder, keyed by its prefix. An empty id keys
// off the shoulder itself; a non-empty id must match the prefix.
func (st *shouldersTable) Set(id string, data any) (string, error) {
	st.backend.mu.RLock()
	defer st.backend.mu.RUnlock()

	if !st.backend.attached {
		return "", types.ErrStoreDetached
	}
	shoulder, ok := data.(*types.Shoulder)
	if !ok || shoulder == nil {
		return "", types.ErrInvalidData
	}
	if id != "" && id != shoulder.Prefix {
		return "", types.ErrInvalidID
	}
	if err := shoulder.Validate(); err != nil {
		return "", err
	}

	upsert := `INSERT INTO shoulders (` + shoulderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (prefix) DO UPDATE SET
			type = excluded.type,
			name = excluded.name,
			minter = excluded.minter,
			datacenter = excluded.datacenter,
			crossref_enabled = excluded.crossref_enabled,
			is_test = excluded.is_test,
			is_supershoulder = excluded.is_supershoulder,
			active = excluded.active,
			manager = excluded.manager`
	_, err := st.backend.db.Exec(upsert,
		shoulder.Prefix, shoulder.Type, shoulder.Name,
		nullable(shoulder.Minter), nullable(shoulder.Datacenter),
		shoulder.CrossrefEnabled, shoulder.IsTest, shoulder.IsSupershoulder,
		shoulder.Active, nullable(shoulder.Manager))
	if err != nil {
		return "", fmt.Errorf("upserting shoulder: %w", err)
	}
	return shoulder.Prefix, nil
}

// Delete removes a shoulder by prefix.
func (st *shouldersTable) Delete(id string) error {
	st.backend.mu.RLock()
	defer st.backend.mu.RUnlock()

	if !st.backend.attached {
		return types.ErrStoreDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	res, err := st.backend.db.Exec(`DELETE FROM shoulders WHERE prefix = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting shoulder: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return types.ErrNotFound
	}
	return nil
}

// Fetch returns shoulders matching the filter, ordered by prefix. Supported
// keys: "type" (string), "active" (bool), "is_test" (bool).
func (st *shouldersTable) Fetch(filter map[string]any) ([]any, error) {
	st.backend.mu.RLock()
	defer st.backend.mu.RUnlock()

	if !st.backend.attached {
		return nil, types.ErrStoreDetached
	}

	query := `SELECT ` + shoulderColumns + ` FROM shoulders`
	conditions := []string{}
	args := []any{}

	for key, value := range filter {
		switch key {
		case "type":
			shoulderType, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: type must be a string", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `type = ?`)
			args = append(args, shoulderType)
		case "active":
			active, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: active must be a bool", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `active = ?`)
			args = append(args, active)
		case "is_test":
			isTest, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: is_test must be a bool", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `is_test = ?`)
			args = append(args, isTest)
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY prefix ASC"

	rows, err := st.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying shoulders: %w", err)
	}
	defer rows.Close()

	shoulders := []any{}
	for rows.Next() {
		shoulder, err := hydrateShoulder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning shoulder: %w", err)
		}
		shoulders = append(shoulders, shoulder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shoulders: %w", err)
	}
	return shoulders, nil
}

// hydrateShoulder scans a shoulder row through the given scan function.
func hydrateShoulder(scan func(...any) error) (*types.Shoulder, error) {
	var shoulder types.Shoulder
	var minter, datacenter, manager sql.NullString
	err := scan(&shoulder.Prefix, &shoulder.Type, &shoulder.Name,
		&minter, &datacenter, &shoulder.CrossrefEnabled,
		&shoulder.IsTest, &shoulder.IsSupershoulder, &shoulder.Active,
		&manager)
	if err != nil {
		return nil, err
	}
	shoulder.Minter = minter.String
	shoulder.Datacenter = datacenter.String
	shoulder.Manager = manager.String
	return &shoulder, nil
}

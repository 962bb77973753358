package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// ownershipTable exposes the derived ownership index. The rows are rebuilt by
// identifier writes; callers can only read, and Set and Delete report the
// table as read-only.
type ownershipTable struct {
	backend *Backend
}

var _ types.Table = (*ownershipTable)(nil)

// Get returns the ownership rows for the given identifier, one per owner or
// co-owner.
func (ot *ownershipTable) Get(id string) (any, error) {
	ot.backend.mu.RLock()
	defer ot.backend.mu.RUnlock()

	if !ot.backend.attached {
		return nil, types.ErrStoreDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	query := `SELECT owner, identifier FROM ownership WHERE identifier = ? ORDER BY owner ASC`
	rows, err := ot.backend.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("querying ownership: %w", err)
	}
	defer rows.Close()

	entries := []*types.OwnershipEntry{}
	for rows.Next() {
		var entry types.OwnershipEntry
		if err := rows.Scan(&entry.Owner, &entry.Identifier); err != nil {
			return nil, fmt.Errorf("scanning ownership: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ownership: %w", err)
	}
	if len(entries) == 0 {
		return nil, types.ErrNotFound
	}
	return entries, nil
}

// Set is not supported; ownership rows are derived from identifier writes.
func (ot *ownershipTable) Set(id string, data any) (string, error) {
	return "", types.ErrReadOnlyTable
}

// Delete is not supported; ownership rows are derived from identifier writes.
func (ot *ownershipTable) Delete(id string) error {
	return types.ErrReadOnlyTable
}

// Fetch returns ownership rows matching the filter, ordered by owner then
// identifier. Supported keys: "owner" (string), "identifier" (string).
func (ot *ownershipTable) Fetch(filter map[string]any) ([]any, error) {
	ot.backend.mu.RLock()
	defer ot.backend.mu.RUnlock()

	if !ot.backend.attached {
		return nil, types.ErrStoreDetached
	}

	query := `SELECT owner, identifier FROM ownership`
	conditions := []string{}
	args := []any{}

	for key, value := range filter {
		switch key {
		case "owner":
			owner, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: owner must be a string", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `owner = ?`)
			args = append(args, owner)
		case "identifier":
			name, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: identifier must be a string", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `identifier = ?`)
			args = append(args, name)
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY owner ASC, identifier ASC"

	rows, err := ot.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying ownership: %w", err)
	}
	defer rows.Close()

	entries := []any{}
	for rows.Next() {
		var entry types.OwnershipEntry
		if err := rows.Scan(&entry.Owner, &entry.Identifier); err != nil {
			return nil, fmt.Errorf("scanning ownership: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ownership: %w", err)
	}
	return entries, nil
}

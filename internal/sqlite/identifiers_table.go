package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/pidsearch/internal/scheme"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// identifiersTable accesses the identifier table. Every write also rebuilds
// the ownership rows for the touched identifier inside the same transaction,
// so the ownership index never observes a partial update.
type identifiersTable struct {
	backend *Backend
}

var _ types.Table = (*identifiersTable)(nil)

// identifierColumns is qualified so the same select list works with and
// without the ownership join.
const identifierColumns = `identifier.identifier, identifier.owner, identifier.coOwners, ` +
	`identifier.createTime, identifier.updateTime, identifier.status, ` +
	`identifier.mappedTitle, identifier.mappedCreator`

// Get returns the identifier record stored under the given normalized name.
func (it *identifiersTable) Get(id string) (any, error) {
	it.backend.mu.RLock()
	defer it.backend.mu.RUnlock()

	if !it.backend.attached {
		return nil, types.ErrStoreDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	query := `SELECT ` + identifierColumns + ` FROM identifier WHERE identifier.identifier = ?`
	rec, err := hydrateIdentifier(it.backend.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying identifier: %w", err)
	}
	return rec, nil
}

// Set creates or updates an identifier record. The record's name is
// normalized before storage and returned as the key. Shadow identifiers are
// rejected. The ownership rows for the identifier are dropped and reinserted
// from the record's owner list in the same transaction as the row write.
func (it *identifiersTable) Set(id string, data any) (string, error) {
	it.backend.mu.RLock()
	defer it.backend.mu.RUnlock()

	if !it.backend.attached {
		return "", types.ErrStoreDetached
	}
	rec, ok := data.(*types.Identifier)
	if !ok || rec == nil {
		return "", types.ErrInvalidData
	}

	name := rec.Identifier
	if name == "" {
		name = id
	}
	if name == "" {
		return "", types.ErrEmptyIdentifier
	}
	normalized, err := scheme.Normalize(name)
	if err != nil {
		return "", fmt.Errorf("normalizing identifier: %w", err)
	}
	if id != "" {
		keyed, err := scheme.Normalize(id)
		if err != nil || keyed != normalized {
			return "", types.ErrInvalidID
		}
	}
	if scheme.IsShadowArk(normalized) {
		return "", types.ErrShadowIdentifier
	}

	stored := *rec
	stored.Identifier = normalized
	if err := stored.Validate(); err != nil {
		return "", err
	}

	db := it.backend.db
	var one int
	err = db.QueryRow(`SELECT 1 FROM identifier WHERE identifier = ?`, normalized).Scan(&one)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("checking identifier: %w", err)
	}
	found := err == nil

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if found {
		update := `UPDATE identifier SET owner = ?, coOwners = ?, createTime = ?, ` +
			`updateTime = ?, status = ?, mappedTitle = ?, mappedCreator = ? WHERE identifier = ?`
		_, err = tx.Exec(update,
			stored.Owner, dehydrateCoOwners(stored.CoOwners),
			stored.CreateTime, stored.UpdateTime, stored.Status,
			nullable(stored.MappedTitle), nullable(stored.MappedCreator),
			normalized)
		if err != nil {
			return "", fmt.Errorf("updating identifier: %w", err)
		}
	} else {
		insert := `INSERT INTO identifier (identifier, owner, coOwners, createTime, ` +
			`updateTime, status, mappedTitle, mappedCreator) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = tx.Exec(insert,
			normalized, stored.Owner, dehydrateCoOwners(stored.CoOwners),
			stored.CreateTime, stored.UpdateTime, stored.Status,
			nullable(stored.MappedTitle), nullable(stored.MappedCreator))
		if err != nil {
			return "", fmt.Errorf("inserting identifier: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM ownership WHERE identifier = ?`, normalized); err != nil {
		return "", fmt.Errorf("clearing ownership: %w", err)
	}
	for _, agent := range stored.AllOwners() {
		insert := `INSERT INTO ownership (owner, identifier) VALUES (?, ?)`
		if _, err := tx.Exec(insert, agent, normalized); err != nil {
			return "", fmt.Errorf("writing ownership: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing identifier: %w", err)
	}
	return normalized, nil
}

// Delete removes an identifier record and all its ownership rows.
func (it *identifiersTable) Delete(id string) error {
	it.backend.mu.RLock()
	defer it.backend.mu.RUnlock()

	if !it.backend.attached {
		return types.ErrStoreDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	db := it.backend.db
	var one int
	err := db.QueryRow(`SELECT 1 FROM identifier WHERE identifier = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking identifier: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM ownership WHERE identifier = ?`, id); err != nil {
		return fmt.Errorf("deleting ownership: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM identifier WHERE identifier = ?`, id); err != nil {
		return fmt.Errorf("deleting identifier: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// Fetch returns identifier records matching the filter, ordered by name.
// Supported keys: "owner" (string, matches owner or co-owner through the
// ownership index), "status" (string), "after" (string, names strictly
// greater, for keyset pagination), "limit" (int).
func (it *identifiersTable) Fetch(filter map[string]any) ([]any, error) {
	it.backend.mu.RLock()
	defer it.backend.mu.RUnlock()

	if !it.backend.attached {
		return nil, types.ErrStoreDetached
	}

	query := `SELECT ` + identifierColumns + ` FROM identifier`
	joins := []string{}
	conditions := []string{}
	args := []any{}
	limit := 0

	for key, value := range filter {
		switch key {
		case "owner":
			owner, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: owner must be a string", types.ErrInvalidFilter)
			}
			joins = append(joins, `JOIN ownership ON ownership.identifier = identifier.identifier`)
			conditions = append(conditions, `ownership.owner = ?`)
			args = append(args, owner)
		case "status":
			status, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: status must be a string", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `identifier.status = ?`)
			args = append(args, status)
		case "after":
			after, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: after must be a string", types.ErrInvalidFilter)
			}
			conditions = append(conditions, `identifier.identifier > ?`)
			args = append(args, after)
		case "limit":
			n, ok := value.(int)
			if !ok || n < 0 {
				return nil, fmt.Errorf("%w: limit must be a non-negative int", types.ErrInvalidFilter)
			}
			limit = n
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}

	for _, join := range joins {
		query += " " + join
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY identifier.identifier ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := it.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying identifiers: %w", err)
	}
	defer rows.Close()

	records := []any{}
	for rows.Next() {
		rec, err := hydrateIdentifierFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning identifier: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating identifiers: %w", err)
	}
	return records, nil
}

// hydrateIdentifier scans a single-row query result into a record.
func hydrateIdentifier(row *sql.Row) (*types.Identifier, error) {
	var rec types.Identifier
	var coOwners, mappedTitle, mappedCreator sql.NullString
	err := row.Scan(&rec.Identifier, &rec.Owner, &coOwners,
		&rec.CreateTime, &rec.UpdateTime, &rec.Status,
		&mappedTitle, &mappedCreator)
	if err != nil {
		return nil, err
	}
	rec.CoOwners = hydrateCoOwners(coOwners)
	rec.MappedTitle = mappedTitle.String
	rec.MappedCreator = mappedCreator.String
	return &rec, nil
}

// hydrateIdentifierFromRows scans the current row of a multi-row result.
func hydrateIdentifierFromRows(rows *sql.Rows) (*types.Identifier, error) {
	var rec types.Identifier
	var coOwners, mappedTitle, mappedCreator sql.NullString
	err := rows.Scan(&rec.Identifier, &rec.Owner, &coOwners,
		&rec.CreateTime, &rec.UpdateTime, &rec.Status,
		&mappedTitle, &mappedCreator)
	if err != nil {
		return nil, err
	}
	rec.CoOwners = hydrateCoOwners(coOwners)
	rec.MappedTitle = mappedTitle.String
	rec.MappedCreator = mappedCreator.String
	return &rec, nil
}

// hydrateCoOwners splits the stored semicolon-separated list, dropping
// blanks.
func hydrateCoOwners(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	parts := strings.Split(raw.String, ";")
	coOwners := make([]string, 0, len(parts))
	for _, part := range parts {
		if agent := strings.TrimSpace(part); agent != "" {
			coOwners = append(coOwners, agent)
		}
	}
	if len(coOwners) == 0 {
		return nil
	}
	return coOwners
}

// dehydrateCoOwners joins the co-owner list for storage, NULL when empty.
func dehydrateCoOwners(coOwners []string) any {
	if len(coOwners) == 0 {
		return nil
	}
	return strings.Join(coOwners, ";")
}

// nullable maps an empty string to NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

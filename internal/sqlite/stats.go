package sqlite

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mesh-intelligence/pidsearch/internal/scheme"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// statsBatchSize is the keyset page size used when walking the identifier
// table during a recompute.
const statsBatchSize = 1000

// statKey identifies one statistics bucket during aggregation.
type statKey struct {
	month       string
	owner       string
	identType   string
	hasMetadata bool
}

// RecomputeStatistics rebuilds the statistics table from the identifier
// table. Identifiers are walked in keyset batches and bucketed by creation
// month, owner, uppercased scheme, and metadata presence; identifiers under
// test prefixes are excluded. The statistics table is replaced in a single
// transaction so readers never see a half-built table.
func (b *Backend) RecomputeStatistics() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	counts := map[statKey]int64{}
	after := ""
	for {
		query := `SELECT identifier, owner, createTime, mappedTitle, mappedCreator ` +
			`FROM identifier WHERE identifier > ? ORDER BY identifier ASC LIMIT ?`
		rows, err := b.db.Query(query, after, statsBatchSize)
		if err != nil {
			return fmt.Errorf("querying identifiers: %w", err)
		}

		scanned := 0
		for rows.Next() {
			var name, owner string
			var createTime int64
			var title, creator sql.NullString
			if err := rows.Scan(&name, &owner, &createTime, &title, &creator); err != nil {
				rows.Close()
				return fmt.Errorf("scanning identifier: %w", err)
			}
			scanned++
			after = name
			if scheme.IsTest(name) {
				continue
			}
			key := statKey{
				month:       time.Unix(createTime, 0).UTC().Format("2006-01"),
				owner:       owner,
				identType:   strings.ToUpper(scheme.Of(name)),
				hasMetadata: title.String != "" && creator.String != "",
			}
			counts[key]++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterating identifiers: %w", err)
		}
		rows.Close()

		if scanned < statsBatchSize {
			break
		}
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM statistics`); err != nil {
		return fmt.Errorf("clearing statistics: %w", err)
	}
	insert := `INSERT INTO statistics (month, owner, type, has_metadata, count) VALUES (?, ?, ?, ?, ?)`
	for key, count := range counts {
		if _, err := tx.Exec(insert, key.month, key.owner, key.identType, key.hasMetadata, count); err != nil {
			return fmt.Errorf("writing statistics: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing statistics: %w", err)
	}
	return nil
}

// QueryStatistics returns the total count over buckets matching the filter.
func (b *Backend) QueryStatistics(filter types.StatsFilter) (int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, types.ErrStoreDetached
	}

	query := `SELECT COALESCE(SUM(count), 0) FROM statistics`
	conditions := []string{}
	args := []any{}
	if filter.Month != "" {
		conditions = append(conditions, `month = ?`)
		args = append(args, filter.Month)
	}
	if filter.Owner != "" {
		conditions = append(conditions, `owner = ?`)
		args = append(args, filter.Owner)
	}
	if filter.Type != "" {
		conditions = append(conditions, `type = ?`)
		args = append(args, strings.ToUpper(filter.Type))
	}
	if filter.HasMetadata != nil {
		conditions = append(conditions, `has_metadata = ?`)
		args = append(args, *filter.HasMetadata)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := b.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("querying statistics: %w", err)
	}
	return total, nil
}

// MonthlyStatistics returns one row per calendar month from the earliest to
// the latest recorded bucket, with months in between filled in at zero. An
// empty owner aggregates over all owners. Returns an empty slice when no
// statistics exist.
func (b *Backend) MonthlyStatistics(owner string) ([]types.MonthStat, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	query := `SELECT month, type, has_metadata, SUM(count) FROM statistics`
	args := []any{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` GROUP BY month, type, has_metadata`

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying statistics: %w", err)
	}
	defer rows.Close()

	byMonth := map[string]*types.MonthStat{}
	for rows.Next() {
		var month, identType string
		var hasMetadata bool
		var count int64
		if err := rows.Scan(&month, &identType, &hasMetadata, &count); err != nil {
			return nil, fmt.Errorf("scanning statistics: %w", err)
		}
		stat, ok := byMonth[month]
		if !ok {
			stat = &types.MonthStat{Month: month, ByType: map[string]int64{}}
			byMonth[month] = stat
		}
		stat.ByType[identType] += count
		stat.Total += count
		if hasMetadata {
			stat.WithMetadata += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statistics: %w", err)
	}
	if len(byMonth) == 0 {
		return []types.MonthStat{}, nil
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	first, err := time.Parse("2006-01", months[0])
	if err != nil {
		return nil, fmt.Errorf("parsing month %q: %w", months[0], err)
	}
	last, err := time.Parse("2006-01", months[len(months)-1])
	if err != nil {
		return nil, fmt.Errorf("parsing month %q: %w", months[len(months)-1], err)
	}

	table := []types.MonthStat{}
	for cursor := first; !cursor.After(last); cursor = cursor.AddDate(0, 1, 0) {
		month := cursor.Format("2006-01")
		if stat, ok := byMonth[month]; ok {
			table = append(table, *stat)
		} else {
			table = append(table, types.MonthStat{Month: month, ByType: map[string]int64{}})
		}
	}
	return table, nil
}

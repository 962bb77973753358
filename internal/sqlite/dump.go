package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mesh-intelligence/pidsearch/internal/scheme"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// Dump writes every identifier and shoulder record to JSONL files in the
// data directory, one JSON object per line, replacing any previous dump
// atomically. Returns the number of identifiers and shoulders written.
func (b *Backend) Dump() (int, int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, 0, types.ErrStoreDetached
	}

	identifiers := []json.RawMessage{}
	after := ""
	for {
		query := `SELECT ` + identifierColumns + ` FROM identifier ` +
			`WHERE identifier.identifier > ? ORDER BY identifier.identifier ASC LIMIT ?`
		rows, err := b.db.Query(query, after, statsBatchSize)
		if err != nil {
			return 0, 0, fmt.Errorf("querying identifiers: %w", err)
		}

		scanned := 0
		for rows.Next() {
			rec, err := hydrateIdentifierFromRows(rows)
			if err != nil {
				rows.Close()
				return 0, 0, fmt.Errorf("scanning identifier: %w", err)
			}
			scanned++
			after = rec.Identifier
			line, err := json.Marshal(rec)
			if err != nil {
				rows.Close()
				return 0, 0, fmt.Errorf("encoding identifier: %w", err)
			}
			identifiers = append(identifiers, line)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("iterating identifiers: %w", err)
		}
		rows.Close()

		if scanned < statsBatchSize {
			break
		}
	}

	shoulders := []json.RawMessage{}
	rows, err := b.db.Query(`SELECT ` + shoulderColumns + ` FROM shoulders ORDER BY prefix ASC`)
	if err != nil {
		return 0, 0, fmt.Errorf("querying shoulders: %w", err)
	}
	for rows.Next() {
		shoulder, err := hydrateShoulder(rows.Scan)
		if err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("scanning shoulder: %w", err)
		}
		line, err := json.Marshal(shoulder)
		if err != nil {
			rows.Close()
			return 0, 0, fmt.Errorf("encoding shoulder: %w", err)
		}
		shoulders = append(shoulders, line)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, 0, fmt.Errorf("iterating shoulders: %w", err)
	}
	rows.Close()

	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := writeJSONL(filepath.Join(dataDir, identifiersDumpFile), identifiers); err != nil {
		return 0, 0, fmt.Errorf("writing identifier dump: %w", err)
	}
	if err := writeJSONL(filepath.Join(dataDir, shouldersDumpFile), shoulders); err != nil {
		return 0, 0, fmt.Errorf("writing shoulder dump: %w", err)
	}
	return len(identifiers), len(shoulders), nil
}

// Load restores identifier and shoulder records from the dump files in the
// data directory. Identifier records are validated and normalized on the way
// in, and their ownership rows are rebuilt; records that fail validation and
// shadow identifiers are skipped and counted. A missing dump file loads
// nothing from that file. Returns the number of records applied and skipped.
func (b *Backend) Load() (int, int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return 0, 0, types.ErrStoreDetached
	}

	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	applied := 0
	skipped := 0

	identifierLines, badLines, err := readJSONL(filepath.Join(dataDir, identifiersDumpFile))
	if err == nil {
		skipped += badLines
		tx, err := b.db.Begin()
		if err != nil {
			return 0, 0, fmt.Errorf("beginning transaction: %w", err)
		}
		defer tx.Rollback()

		for _, line := range identifierLines {
			var rec types.Identifier
			if err := json.Unmarshal(line, &rec); err != nil {
				skipped++
				continue
			}
			normalized, err := scheme.Normalize(rec.Identifier)
			if err != nil || scheme.IsShadowArk(normalized) {
				skipped++
				continue
			}
			rec.Identifier = normalized
			if err := rec.Validate(); err != nil {
				skipped++
				continue
			}

			replace := `INSERT OR REPLACE INTO identifier (identifier, owner, coOwners, ` +
				`createTime, updateTime, status, mappedTitle, mappedCreator) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
			_, err = tx.Exec(replace,
				rec.Identifier, rec.Owner, dehydrateCoOwners(rec.CoOwners),
				rec.CreateTime, rec.UpdateTime, rec.Status,
				nullable(rec.MappedTitle), nullable(rec.MappedCreator))
			if err != nil {
				return 0, 0, fmt.Errorf("restoring identifier: %w", err)
			}
			if _, err := tx.Exec(`DELETE FROM ownership WHERE identifier = ?`, rec.Identifier); err != nil {
				return 0, 0, fmt.Errorf("clearing ownership: %w", err)
			}
			for _, agent := range rec.AllOwners() {
				insert := `INSERT INTO ownership (owner, identifier) VALUES (?, ?)`
				if _, err := tx.Exec(insert, agent, rec.Identifier); err != nil {
					return 0, 0, fmt.Errorf("restoring ownership: %w", err)
				}
			}
			applied++
		}

		if err := tx.Commit(); err != nil {
			return 0, 0, fmt.Errorf("committing restore: %w", err)
		}
	}

	shoulderLines, badLines, err := readJSONL(filepath.Join(dataDir, shouldersDumpFile))
	if err == nil {
		skipped += badLines
		for _, line := range shoulderLines {
			var shoulder types.Shoulder
			if err := json.Unmarshal(line, &shoulder); err != nil {
				skipped++
				continue
			}
			if err := shoulder.Validate(); err != nil {
				skipped++
				continue
			}

			replace := `INSERT OR REPLACE INTO shoulders (` + shoulderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
			_, err := b.db.Exec(replace,
				shoulder.Prefix, shoulder.Type, shoulder.Name,
				nullable(shoulder.Minter), nullable(shoulder.Datacenter),
				shoulder.CrossrefEnabled, shoulder.IsTest, shoulder.IsSupershoulder,
				shoulder.Active, nullable(shoulder.Manager))
			if err != nil {
				return 0, 0, fmt.Errorf("restoring shoulder: %w", err)
			}
			applied++
		}
	}

	return applied, skipped, nil
}

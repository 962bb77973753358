package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// queueTable accesses the update queue. The store assigns Seq on enqueue;
// entry IDs are the decimal form of Seq. The worker fetches entries in Seq
// order and deletes them once applied.
type queueTable struct {
	backend *Backend
}

var _ types.Table = (*queueTable)(nil)

// Get returns the queue entry with the given sequence number.
func (qt *queueTable) Get(id string) (any, error) {
	qt.backend.mu.RLock()
	defer qt.backend.mu.RUnlock()

	if !qt.backend.attached {
		return nil, types.ErrStoreDetached
	}
	seq, err := parseSeq(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT seq, identifier, metadata, operation, enqueue_time FROM update_queue WHERE seq = ?`
	row := qt.backend.db.QueryRow(query, seq)
	entry, err := hydrateQueueEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying queue entry: %w", err)
	}
	return entry, nil
}

// Set enqueues a new entry and returns its assigned sequence number. The id
// must be empty: sequence numbers are store-assigned and entries are never
// updated in place. A zero EnqueueTime is stamped with the current time. The
// entry's Seq field is set on return.
func (qt *queueTable) Set(id string, data any) (string, error) {
	qt.backend.mu.RLock()
	defer qt.backend.mu.RUnlock()

	if !qt.backend.attached {
		return "", types.ErrStoreDetached
	}
	if id != "" {
		return "", types.ErrInvalidID
	}
	entry, ok := data.(*types.QueueEntry)
	if !ok || entry == nil {
		return "", types.ErrInvalidData
	}
	if err := entry.Validate(); err != nil {
		return "", err
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("encoding metadata: %w", err)
	}
	if entry.EnqueueTime == 0 {
		entry.EnqueueTime = time.Now().Unix()
	}

	insert := `INSERT INTO update_queue (identifier, metadata, operation, enqueue_time) VALUES (?, ?, ?, ?)`
	res, err := qt.backend.db.Exec(insert, entry.Identifier, string(metadata), entry.Operation, entry.EnqueueTime)
	if err != nil {
		return "", fmt.Errorf("inserting queue entry: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("reading assigned sequence: %w", err)
	}
	entry.Seq = seq
	return strconv.FormatInt(seq, 10), nil
}

// Delete removes a processed entry by sequence number.
func (qt *queueTable) Delete(id string) error {
	qt.backend.mu.RLock()
	defer qt.backend.mu.RUnlock()

	if !qt.backend.attached {
		return types.ErrStoreDetached
	}
	seq, err := parseSeq(id)
	if err != nil {
		return err
	}

	res, err := qt.backend.db.Exec(`DELETE FROM update_queue WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("deleting queue entry: %w", err)
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

// Fetch returns queue entries in sequence order. Supported keys:
// "identifier" (string), "limit" (int).
func (qt *queueTable) Fetch(filter map[string]any) ([]any, error) {
	qt.backend.mu.RLock()
	defer qt.backend.mu.RUnlock()

	if !qt.backend.attached {
		return nil, types.ErrStoreDetached
	}

	query := `SELECT seq, identifier, metadata, operation, enqueue_time FROM update_queue`
	args := []any{}
	limit := 0

	for key, value := range filter {
		switch key {
		case "identifier":
			name, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: identifier must be a string", types.ErrInvalidFilter)
			}
			query += " WHERE identifier = ?"
			args = append(args, name)
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

	query += " ORDER BY seq ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := qt.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying queue: %w", err)
	}
	defer rows.Close()

	entries := []any{}
	for rows.Next() {
		entry, err := hydrateQueueEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning queue entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating queue: %w", err)
	}
	return entries, nil
}

// parseSeq converts an entry ID back to its sequence number.
func parseSeq(id string) (int64, error) {
	if id == "" {
		return 0, types.ErrInvalidID
	}
	seq, err := strconv.ParseInt(id, 10, 64)
	if err != nil || seq < 1 {
		return 0, types.ErrInvalidID
	}
	return seq, nil
}

// hydrateQueueEntry scans a queue row through the given scan function, which
// lets one helper serve both Row and Rows.
func hydrateQueueEntry(scan func(...any) error) (*types.QueueEntry, error) {
	var entry types.QueueEntry
	var metadata sql.NullString
	err := scan(&entry.Seq, &entry.Identifier, &metadata, &entry.Operation, &entry.EnqueueTime)
	if err != nil {
		return nil, err
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata: %w", err)
		}
	}
	return &entry, nil
}

package types

import "errors"

// Update queue operations. Create and update both upsert into the index;
// delete removes.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// validOperations is the set of recognized queue operations.
var validOperations = map[string]bool{
	OperationCreate: true,
	OperationUpdate: true,
	OperationDelete: true,
}

// Queue entity errors.
var (
	ErrInvalidOperation = errors.New("invalid queue operation")
)

// QueueEntry is one pending change published by the identifier service for
// this index to apply. Entries are consumed strictly in Seq order. Metadata
// holds the identifier's element/value pairs in compressed (stored) form,
// e.g. "_o" for owner; see the metadata package for the label mapping.
type QueueEntry struct {
	Seq         int64             // Assigned by the store on enqueue.
	Identifier  string            // Scheme-qualified identifier the change concerns.
	Metadata    map[string]string // Compressed element map; empty for deletes.
	Operation   string            // One of the Operation constants.
	EnqueueTime int64             // Enqueue instant, Unix seconds.
}

// Validate checks that the entry names an identifier and carries a
// recognized operation.
func (e *QueueEntry) Validate() error {
	if e.Identifier == "" {
		return ErrEmptyIdentifier
	}
	if !validOperations[e.Operation] {
		return ErrInvalidOperation
	}
	return nil
}

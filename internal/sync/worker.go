// Package sync applies the update queue to the identifier index. The worker
// drains the queue in sequence order, batch by batch, translating each
// entry's element metadata into an index record.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pidsearch/internal/metadata"
	"github.com/mesh-intelligence/pidsearch/internal/scheme"
	"github.com/mesh-intelligence/pidsearch/pkg/types"
)

// anonymousOwner marks records published without an owning agent; they are
// never indexed.
const anonymousOwner = "anonymous"

// Worker consumes the update queue and applies each entry to the identifier
// table. Entries that cannot ever apply (malformed, shadow, ownerless, or
// invalid) are consumed and logged; storage failures leave the entry queued
// so the next cycle retries it.
type Worker struct {
	queue       types.Table
	identifiers types.Table
	batchSize   int
	idle        time.Duration
	logger      *zap.Logger
}

// NewWorker builds a Worker over the store's queue and identifier tables,
// taking its batch size and idle interval from config. A nil logger logs
// nowhere.
func NewWorker(store types.Store, config types.Config, logger *zap.Logger) (*Worker, error) {
	queue, err := store.GetTable(types.TableQueue)
	if err != nil {
		return nil, fmt.Errorf("resolving queue table: %w", err)
	}
	identifiers, err := store.GetTable(types.TableIdentifiers)
	if err != nil {
		return nil, fmt.Errorf("resolving identifier table: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:       queue,
		identifiers: identifiers,
		batchSize:   config.BatchSize(),
		idle:        time.Duration(config.IdleSeconds()) * time.Second,
		logger:      logger,
	}, nil
}

// Run processes the queue until ctx is canceled, sleeping the idle interval
// whenever the queue is empty. Cycle failures are logged and retried after
// the same interval. Returns nil on cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		zap.Int("batch_size", w.batchSize),
		zap.Duration("idle", w.idle))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return nil
		default:
		}

		cycle := newCycleID()
		processed, err := w.cycle(ctx)
		switch {
		case err != nil:
			w.logger.Error("cycle failed, entry retained for retry",
				zap.String("cycle", cycle),
				zap.Int("processed", processed),
				zap.Error(err))
			if !w.sleep(ctx) {
				w.logger.Info("worker stopped")
				return nil
			}
		case processed == 0:
			if !w.sleep(ctx) {
				w.logger.Info("worker stopped")
				return nil
			}
		default:
			w.logger.Info("cycle complete",
				zap.String("cycle", cycle),
				zap.Int("processed", processed))
		}
	}
}

// Drain processes the queue until it is empty, a storage error occurs, or
// ctx is canceled. Returns the number of entries consumed.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		processed, err := w.cycle(ctx)
		total += processed
		if err != nil {
			return total, err
		}
		if processed == 0 {
			return total, nil
		}
	}
}

// cycle fetches one batch in sequence order and applies it, consuming each
// entry as it lands. Returns how many entries were consumed; a non-nil error
// means the current entry stayed queued.
func (w *Worker) cycle(ctx context.Context) (int, error) {
	entities, err := w.queue.Fetch(map[string]any{"limit": w.batchSize})
	if err != nil {
		return 0, fmt.Errorf("fetching queue batch: %w", err)
	}

	processed := 0
	for _, entity := range entities {
		if ctx.Err() != nil {
			return processed, nil
		}
		entry := entity.(*types.QueueEntry)
		if err := w.apply(entry); err != nil {
			return processed, err
		}
		err := w.queue.Delete(strconv.FormatInt(entry.Seq, 10))
		if err != nil && !errors.Is(err, types.ErrNotFound) {
			return processed, fmt.Errorf("removing queue entry %d: %w", entry.Seq, err)
		}
		processed++
	}
	return processed, nil
}

// apply translates one queue entry into an identifier write or delete. A nil
// return means the entry is settled, whether applied or skipped; an error
// means storage failed and the entry must be retried.
func (w *Worker) apply(entry *types.QueueEntry) error {
	log := w.logger.With(
		zap.Int64("seq", entry.Seq),
		zap.String("identifier", entry.Identifier),
		zap.String("operation", entry.Operation))

	normalized, err := scheme.Normalize(entry.Identifier)
	if err != nil {
		log.Warn("skipping malformed identifier", zap.Error(err))
		return nil
	}
	if scheme.IsShadowArk(normalized) {
		log.Debug("skipping shadow identifier")
		return nil
	}

	if entry.Operation == types.OperationDelete {
		err := w.identifiers.Delete(normalized)
		if errors.Is(err, types.ErrNotFound) {
			log.Debug("identifier already absent")
			return nil
		}
		if err != nil {
			return fmt.Errorf("deleting identifier %s: %w", normalized, err)
		}
		return nil
	}

	owner := metaValue(entry.Metadata, "_o", "_owner")
	if owner == "" || owner == anonymousOwner {
		log.Debug("skipping ownerless identifier")
		return nil
	}

	rec := recordFrom(normalized, owner, entry.Metadata)
	if _, err := w.identifiers.Set("", rec); err != nil {
		if skippable(err) {
			log.Warn("skipping invalid entry", zap.Error(err))
			return nil
		}
		return fmt.Errorf("writing identifier %s: %w", normalized, err)
	}
	return nil
}

// sleep waits the idle interval; false means ctx was canceled first.
func (w *Worker) sleep(ctx context.Context) bool {
	timer := time.NewTimer(w.idle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// recordFrom builds an index record from an entry's element metadata.
func recordFrom(identifier, owner string, m map[string]string) *types.Identifier {
	created := parseEpoch(metaValue(m, "_c", "_created"))
	updated := parseEpoch(metaValue(m, "_u", "_updated"))
	if updated == 0 {
		updated = created
	}
	title, creator := metadata.Map(identifier, m)
	return &types.Identifier{
		Identifier:    identifier,
		Owner:         owner,
		CoOwners:      splitAgents(metaValue(m, "_co", "_coowners")),
		CreateTime:    created,
		UpdateTime:    updated,
		Status:        parseStatus(metaValue(m, "_is", "_status")),
		MappedTitle:   title,
		MappedCreator: creator,
	}
}

// skippable reports whether a write error condemns the entry rather than the
// storage, so the entry can be consumed instead of retried.
func skippable(err error) bool {
	return errors.Is(err, types.ErrInvalidData) ||
		errors.Is(err, types.ErrEmptyIdentifier) ||
		errors.Is(err, types.ErrEmptyOwner) ||
		errors.Is(err, types.ErrTimeOrder) ||
		errors.Is(err, types.ErrInvalidStatus) ||
		errors.Is(err, types.ErrShadowIdentifier) ||
		errors.Is(err, scheme.ErrMalformed) ||
		errors.Is(err, scheme.ErrUnknownScheme)
}

// metaValue reads an element by its compressed label, falling back to the
// stored label.
func metaValue(m map[string]string, compressed, stored string) string {
	if v := m[compressed]; v != "" {
		return v
	}
	return m[stored]
}

// parseEpoch parses a Unix-seconds string, zero when absent or malformed.
func parseEpoch(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseStatus extracts the status token, dropping any "| reason" suffix an
// unavailable status may carry. Absent status means public.
func parseStatus(s string) string {
	status, _, _ := strings.Cut(s, "|")
	status = strings.TrimSpace(status)
	if status == "" {
		return types.StatusPublic
	}
	return status
}

// splitAgents splits a semicolon-separated agent list, dropping blanks.
func splitAgents(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	agents := make([]string, 0, len(parts))
	for _, part := range parts {
		if agent := strings.TrimSpace(part); agent != "" {
			agents = append(agents, agent)
		}
	}
	if len(agents) == 0 {
		return nil
	}
	return agents
}

// newCycleID tags one processing cycle's log lines.
func newCycleID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return "unknown"
	}
	return id.String()
}

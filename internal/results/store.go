// Package results accumulates scraped records in memory and persists them to
// a durable snapshot with a debounced writer.
package results

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/questbibek/leads-scraper-pro/internal/logger"
	"github.com/questbibek/leads-scraper-pro/internal/models"
)

// DefaultQuiet is the silence required before a scheduled write runs.
const DefaultQuiet = 500 * time.Millisecond

// Persister is the durable key-value store behind the Result Store.
type Persister interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, snap models.Snapshot) error
}

// PersistenceError wraps a failed durable write. The in-memory records are
// unaffected and the next scheduled write supersedes the failed one.
type PersistenceError struct {
	Records int
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %d records: %v", e.Records, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Meta holds the session inputs saved next to the records.
type Meta struct {
	SearchTerm string
	Locations  string
	MaxResults string
}

// Store is the ordered, append-only record list of a session.
type Store struct {
	mu      sync.Mutex
	records []models.Record
	meta    Meta
	timer   *time.Timer
	pending bool

	// writeMu serializes durable writes so two snapshots never overlap.
	writeMu sync.Mutex

	persister Persister
	quiet     time.Duration
	log       logger.Logger
	now       func() time.Time
	onError   func(error)

	handlers    []errorHandler
	nextHandler int
}

type errorHandler struct {
	id int
	fn func(error)
}

// Option configures a Store.
type Option func(*Store)

// WithQuiet overrides the debounce quiet period.
func WithQuiet(d time.Duration) Option {
	return func(s *Store) { s.quiet = d }
}

// WithClock overrides the timestamp source for lastUpdate.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithErrorHandler is called with every *PersistenceError.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) { s.onError = fn }
}

// NewStore creates an empty Store backed by p.
func NewStore(p Persister, log logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Store{
		persister: p,
		quiet:     DefaultQuiet,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore replaces the in-memory state with the persisted snapshot. It must
// run before a session starts.
func (s *Store) Restore(ctx context.Context) (models.Snapshot, error) {
	snap, err := s.persister.Load(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("restore snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]models.Record(nil), snap.Records...)
	s.meta = Meta{SearchTerm: snap.SearchTerm, Locations: snap.Locations, MaxResults: snap.MaxResults}

	s.log.Info("Restored previous results",
		logger.Int("records", len(s.records)),
		logger.String("search_term", snap.SearchTerm),
	)
	return snap, nil
}

// Append adds a record and schedules a write.
func (s *Store) Append(rec models.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	s.scheduleLocked()
	return len(s.records)
}

// SetMeta records the session inputs and schedules a write.
func (s *Store) SetMeta(meta Meta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.meta = meta
	s.scheduleLocked()
}

// Meta returns the session inputs.
func (s *Store) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Clear empties the store when confirmed is true and reports whether it did.
func (s *Store) Clear(confirmed bool) bool {
	if !confirmed {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.scheduleLocked()
	return true
}

// Records returns a copy of the accumulated records in insertion order.
func (s *Store) Records() []models.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Record(nil), s.records...)
}

// Len returns the number of accumulated records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// scheduleLocked (re)arms the debounce timer. Callers hold s.mu.
func (s *Store) scheduleLocked() {
	s.pending = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.quiet, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.log.Error("Debounced write failed", logger.Error(err))
		}
	})
}

// Flush writes the current state now if a write is pending.
func (s *Store) Flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return nil
	}
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persister.Save(ctx, snap); err != nil {
		perr := &PersistenceError{Records: len(snap.Records), Err: err}
		for _, fn := range s.errorHandlers() {
			fn(perr)
		}
		return perr
	}
	s.log.Debug("Snapshot persisted", logger.Int("records", len(snap.Records)))
	return nil
}

// Close cancels the timer and flushes anything pending.
func (s *Store) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

// OnError adds a handler for *PersistenceError next to the one given with
// WithErrorHandler. The returned func removes it.
func (s *Store) OnError(fn func(error)) (remove func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextHandler++
	id := s.nextHandler
	s.handlers = append(s.handlers, errorHandler{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) errorHandlers() []func(error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fns := make([]func(error), 0, len(s.handlers)+1)
	if s.onError != nil {
		fns = append(fns, s.onError)
	}
	for _, h := range s.handlers {
		fns = append(fns, h.fn)
	}
	return fns
}

func (s *Store) snapshotLocked() models.Snapshot {
	records := make([]models.Record, len(s.records))
	copy(records, s.records)
	return models.Snapshot{
		Records:    records,
		LastUpdate: s.now().UTC(),
		SearchTerm: s.meta.SearchTerm,
		Locations:  s.meta.Locations,
		MaxResults: s.meta.MaxResults,
	}
}

// Package services – Store
//
// The Store owns the database handle, the shared id sequence and the clock.
// Every entity file in this package hangs its operations off *Store.
//
// Design notes:
//   - Writes run under one mutex and one transaction each.
//   - Reads go straight to the pool without taking the lock.
//   - Timestamps come from an injectable clock (WithClock) and are kept
//     monotonic across writes.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// List defaults applied when a caller passes a non-positive limit.
const (
	DefaultMessageLimit        = 50
	DefaultActivityLimit       = 20
	DefaultRecentActivityLimit = 10
)

// Store is the single source of truth for every entity kind. All kinds share
// one id sequence starting at 1; an id is consumed only by a successful
// insert. Mutations are serialized by mu, and the underlying database has a
// single pooled connection, so readers always observe committed state.
type Store struct {
	db       *gorm.DB
	validate *validator.Validate
	now      func() time.Time
	cost     int

	mu   sync.Mutex
	seq  int64
	last time.Time // latest timestamp handed out; guarded by mu
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

// NewStore wraps a migrated database. The id sequence resumes after the
// largest id already present.
func NewStore(db *gorm.DB, opts ...Option) (*Store, error) {
	s := &Store{
		db:       db,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
		cost:     bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	max, err := repo.MaxID(db)
	if err != nil {
		return nil, fmt.Errorf("resume id sequence: %w", err)
	}
	s.seq = max
	return s, nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// insert runs fn with the next id inside a transaction while holding the
// write lock. The sequence only advances when fn succeeds.
func (s *Store) insert(ctx context.Context, fn func(tx *gorm.DB, id int64, now time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.seq + 1
	now := s.stamp()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, id, now)
	})
	if err != nil {
		return err
	}
	s.seq = id
	return nil
}

// mutate runs fn inside a transaction while holding the write lock.
func (s *Store) mutate(ctx context.Context, fn func(tx *gorm.DB, now time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, now)
	})
}

// stamp reads the clock for a write. Timestamps never go backwards across
// writes, even when the wall clock is stepped back. Callers hold mu.
func (s *Store) stamp() time.Time {
	now := s.now()
	if now.Before(s.last) {
		now = s.last
	}
	s.last = now
	return now
}

// notBefore returns now, or prev when the stored value is later.
func notBefore(now, prev time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

// reader returns the handle used by read-only operations.
func (s *Store) reader(ctx context.Context) *gorm.DB { return s.db.WithContext(ctx) }

// check validates v against its binding tags.
func (s *Store) check(v any) error {
	return validationError(s.validate.Struct(v))
}

// span starts a store-level tracing span named "store.<name>".
func span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/Store").Start(ctx, name, trace.WithAttributes(attrs...))
}

// limitOr returns limit, or def when limit is not positive.
func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

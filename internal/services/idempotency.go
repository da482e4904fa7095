// Package services – Idempotency
//
// Storage side of Idempotency-Key handling for message creation. Records
// live for a fixed TTL and are purged in the background.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// HasReplay reports whether a live record exists for (scope, key) at now.
// A missing or expired record is not an error.
func (s *Store) HasReplay(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.reader(ctx), scope, key, now)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReplayMessage returns the message previously created under (scope, key),
// or ErrNotFound when there is no live record or the message was deleted.
func (s *Store) ReplayMessage(ctx context.Context, scope, key string) (*domain.Message, error) {
	rec, err := repo.GetIdempotency(ctx, s.reader(ctx), scope, key, s.now())
	if err != nil {
		return nil, err
	}
	return repo.GetMessage(ctx, s.reader(ctx), rec.MessageID)
}

// RecordIdempotency remembers that (scope, key) produced messageID for ttl.
// A concurrent record for the same pair yields ErrDuplicate.
func (s *Store) RecordIdempotency(ctx context.Context, scope, key string, messageID int64, status int, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := repo.CreateIdempotency(ctx, s.db, scope, key, messageID, status, s.now(), ttl)
	return err
}

// PurgeIdempotency drops expired idempotency records.
func (s *Store) PurgeIdempotency(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return repo.PurgeExpiredIdempotency(ctx, s.db, s.now())
}

// Package repo – Idempotency records
//
// Persistence for Idempotency-Key replays. Expiry is evaluated against the
// caller's clock, never the database's.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// GetIdempotency returns the live record for (scope, key) or ErrNotFound.
// Records whose ExpiresAt is not after now are treated as absent.
func GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("scope = ? AND key = ? AND expires_at > ?", scope, key, now).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

// CreateIdempotency records that (scope, key) produced messageID. An expired
// record for the same pair is replaced; a live one yields ErrDuplicate.
func CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, messageID int64, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	db = db.WithContext(ctx)
	if err := db.Where("scope = ? AND key = ? AND expires_at <= ?", scope, key, now).
		Delete(&domain.Idempotency{}).Error; err != nil {
		return nil, err
	}

	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		Scope:     scope,
		Key:       key,
		MessageID: messageID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.Create(rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes every record that expired at or before now
// and reports how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}

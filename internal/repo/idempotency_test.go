package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	rec, err := GetIdempotency(context.Background(), db, "u1", "   ", t0)
	if rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound), got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	exp := &domain.Idempotency{
		ID:        "expired",
		Scope:     "u1",
		Key:       "k1",
		MessageID: 4,
		Status:    201,
		CreatedAt: t0.Add(-2 * time.Hour),
		ExpiresAt: t0.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	if rec, err := GetIdempotency(context.Background(), db, "u1", "k1", t0); rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired: expected (nil, ErrNotFound), got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "u1", "missing", t0); rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: expected (nil, ErrNotFound), got (%v, %v)", rec, err)
	}
}

func TestCreateIdempotency_SuccessDuplicateAndScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "ip:1.2.3.4", "k9", 9, 201, t0, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.MessageID != 9 || !rec.ExpiresAt.Equal(t0.Add(time.Hour)) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := CreateIdempotency(ctx, db, "ip:1.2.3.4", "k9", 10, 201, t0, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same key under another scope is independent.
	if _, err := CreateIdempotency(ctx, db, "7", "k9", 11, 201, t0, time.Hour); err != nil {
		t.Fatalf("other scope: %v", err)
	}

	got, err := GetIdempotency(ctx, db, "ip:1.2.3.4", "k9", t0.Add(time.Minute))
	if err != nil || got.MessageID != 9 {
		t.Fatalf("lookup: got=%+v err=%v", got, err)
	}
}

func TestCreateIdempotency_ReplacesExpired(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "s", "k", 1, 201, t0, time.Minute); err != nil {
		t.Fatalf("first: %v", err)
	}
	later := t0.Add(2 * time.Minute)
	if _, err := CreateIdempotency(ctx, db, "s", "k", 2, 201, later, time.Minute); err != nil {
		t.Fatalf("second after expiry: %v", err)
	}
	got, err := GetIdempotency(ctx, db, "s", "k", later)
	if err != nil || got.MessageID != 2 {
		t.Fatalf("expected replacement record, got=%+v err=%v", got, err)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, _ = CreateIdempotency(ctx, db, "s", "old", 1, 201, t0, time.Minute)
	_, _ = CreateIdempotency(ctx, db, "s", "new", 2, 201, t0, time.Hour)

	n, err := PurgeExpiredIdempotency(ctx, db, t0.Add(10*time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("purge: n=%d err=%v", n, err)
	}
	if _, err := GetIdempotency(ctx, db, "s", "new", t0.Add(10*time.Minute)); err != nil {
		t.Fatalf("live record should survive purge: %v", err)
	}
}

package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// newTestDB opens a private in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenInMemory("repo_test")
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func i64(v int64) *int64 { return &v }

func TestOpenInMemory_IsolatedAndPinned(t *testing.T) {
	a := newTestDB(t)
	b := newTestDB(t)

	sqlDB, _ := a.DB()
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected MaxOpenConnections=1, got %d", got)
	}

	ctx := context.Background()
	if err := CreateUser(ctx, a, &domain.User{ID: 1, Username: "u", Email: "u@x.io", Password: "h", Role: "user", Status: "offline", CreatedAt: t0, UpdatedAt: t0}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	n, err := CountUsers(ctx, b)
	if err != nil || n != 0 {
		t.Fatalf("second database should be empty, got n=%d err=%v", n, err)
	}
}

func TestAutoMigrate_CreatesAllTables(t *testing.T) {
	db := newTestDB(t)
	m := db.Migrator()
	for _, mdl := range domain.Models() {
		if !m.HasTable(mdl) {
			t.Fatalf("expected table for %T", mdl)
		}
	}
}

func TestTranslate(t *testing.T) {
	if translate(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	if !errors.Is(translate(gorm.ErrRecordNotFound), ErrNotFound) {
		t.Fatalf("record not found should map to ErrNotFound")
	}
	if !errors.Is(translate(errors.New("UNIQUE constraint failed: users.email")), ErrDuplicate) {
		t.Fatalf("unique violation should map to ErrDuplicate")
	}
	if !errors.Is(translate(gorm.ErrDuplicatedKey), ErrDuplicate) {
		t.Fatalf("ErrDuplicatedKey should map to ErrDuplicate")
	}
	other := errors.New("boom")
	if translate(other) != other {
		t.Fatalf("unrelated errors should pass through")
	}
}

func TestMaxID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, err := MaxID(db)
	if err != nil || n != 0 {
		t.Fatalf("empty db: n=%d err=%v", n, err)
	}

	if err := CreateUser(ctx, db, &domain.User{ID: 3, Username: "a", Email: "a@x.io", Password: "h", Role: "user", Status: "offline", CreatedAt: t0, UpdatedAt: t0}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := CreateMessage(ctx, db, &domain.Message{ID: 9, Content: "hi", Type: domain.MessageUser, CreatedAt: t0}); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	n, err = MaxID(db)
	if err != nil || n != 9 {
		t.Fatalf("want 9, got n=%d err=%v", n, err)
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenInMemory

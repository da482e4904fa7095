// Package repo implements the persistence layer for the studio entities,
// backed by GORM over a process-private, in-memory SQLite database.
//
// Functions are thin: they accept a *gorm.DB (which may be a transaction),
// compose queries and translate driver errors into ErrNotFound and
// ErrDuplicate. Id assignment, timestamps, validation and cascades belong to
// services.Store.
package repo

import (
	"errors"
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist. It aliases
// gorm.ErrRecordNotFound so errors.Is works across layers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate is returned when an insert or update violates a unique index.
var ErrDuplicate = errors.New("duplicate")

// OpenInMemory opens a fresh in-memory database whose lifetime is bound to
// the returned handle. The name only labels the shared-cache DSN; a random
// suffix keeps separate stores apart.
//
// The pool is pinned to a single connection that is never recycled: closing
// the last connection to a memory database drops it.
func OpenInMemory(name string) (*gorm.DB, error) {
	if strings.TrimSpace(name) == "" {
		name = "studio"
	}
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	return db, nil
}

// AutoMigrate creates the schema for every domain model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.Models()...)
}

// EnableTracing registers the GORM OpenTelemetry plugin so every query is
// recorded as a span under the global tracer provider. Call it after the
// provider is installed.
func EnableTracing(db *gorm.DB) error {
	return db.Use(tracing.NewPlugin(tracing.WithoutMetrics()))
}

// isDuplicate reports unique-constraint violations. glebarez/sqlite surfaces
// them as plain-text errors.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// MaxID returns the largest id stored in any entity table, or 0 for an empty
// database. The store resumes its shared sequence from it.
func MaxID(db *gorm.DB) (int64, error) {
	var max int64
	for _, mdl := range []any{
		&domain.User{}, &domain.Project{}, &domain.Message{},
		&domain.TeamMember{}, &domain.Deployment{}, &domain.Activity{},
	} {
		var n int64
		if err := db.Model(mdl).Select("COALESCE(MAX(id), 0)").Scan(&n).Error; err != nil {
			return 0, err
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

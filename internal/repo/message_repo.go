// Package repo – Messages
//
// Chat message queries and the newest-first ordering shared by every
// time-ordered listing in this package.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// newestFirst orders rows newest first. Ids come from one increasing
// sequence, so id order is creation order regardless of what the wall clock
// did between inserts.
const newestFirst = "id DESC"

// MessageFilter narrows ListMessages. Zero fields match everything; a
// non-positive Limit returns every match.
type MessageFilter struct {
	ProjectID *int64
	UserID    *int64
	Limit     int
}

// CreateMessage inserts m as given.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	return translate(db.WithContext(ctx).Create(m).Error)
}

// GetMessage fetches a message by id or returns ErrNotFound.
func GetMessage(ctx context.Context, db *gorm.DB, id int64) (*domain.Message, error) {
	var m domain.Message
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// DeleteMessage removes a message. Deleting a missing id is not an error.
func DeleteMessage(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{}).Error
}

// ListMessages returns matching messages newest-first, truncated to
// f.Limit after sorting.
func ListMessages(ctx context.Context, db *gorm.DB, f MessageFilter) ([]domain.Message, error) {
	out := []domain.Message{}
	q := db.WithContext(ctx).Order(newestFirst)
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountMessages counts messages, optionally authored by one user.
func CountMessages(ctx context.Context, db *gorm.DB, userID *int64) (int64, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.Message{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	err := q.Count(&n).Error
	return n, err
}

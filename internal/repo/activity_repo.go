// Package repo – Activities
//
// Queries over the append-only activity log.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// CreateActivity inserts a as given.
func CreateActivity(ctx context.Context, db *gorm.DB, a *domain.Activity) error {
	return translate(db.WithContext(ctx).Create(a).Error)
}

// ActivityFilter narrows ListActivities the way MessageFilter narrows
// ListMessages.
type ActivityFilter struct {
	ProjectID *int64
	UserID    *int64
	Limit     int
}

// GetActivity fetches an activity by id or returns ErrNotFound.
func GetActivity(ctx context.Context, db *gorm.DB, id int64) (*domain.Activity, error) {
	var a domain.Activity
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// DeleteActivity removes an activity. Deleting a missing id is not an error.
func DeleteActivity(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Activity{}).Error
}

// ListActivities returns matching activities newest-first.
func ListActivities(ctx context.Context, db *gorm.DB, f ActivityFilter) ([]domain.Activity, error) {
	out := []domain.Activity{}
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

// ListRecentActivities returns activities relevant to userID newest-first.
//
// Behavior:
//   - Includes activities the user performed.
//   - Includes activities on projects the user owns or is a team member of.
//   - Ownership and membership are resolved with subqueries in one
//     statement, so the result reflects a single snapshot.
//   - A non-positive limit returns every match.
func ListRecentActivities(ctx context.Context, db *gorm.DB, userID int64, limit int) ([]domain.Activity, error) {
	out := []domain.Activity{}
	owned := db.Model(&domain.Project{}).Select("id").Where("owner_id = ?", userID)
	joined := db.Model(&domain.TeamMember{}).Select("project_id").Where("user_id = ?", userID)

	q := db.WithContext(ctx).
		Where("user_id = ? OR project_id IN (?) OR project_id IN (?)", userID, owned, joined).
		Order(newestFirst)
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

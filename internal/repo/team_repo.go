// Package repo – Team members
//
// Queries over project memberships.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// CreateTeamMember inserts tm as given.
func CreateTeamMember(ctx context.Context, db *gorm.DB, tm *domain.TeamMember) error {
	return translate(db.WithContext(ctx).Create(tm).Error)
}

// GetTeamMember fetches a team member by id or returns ErrNotFound.
func GetTeamMember(ctx context.Context, db *gorm.DB, id int64) (*domain.TeamMember, error) {
	var tm domain.TeamMember
	if err := db.WithContext(ctx).Where("id = ?", id).First(&tm).Error; err != nil {
		return nil, translate(err)
	}
	return &tm, nil
}

// SaveTeamMember writes every column of an existing team member.
func SaveTeamMember(ctx context.Context, db *gorm.DB, tm *domain.TeamMember) error {
	return translate(db.WithContext(ctx).Save(tm).Error)
}

// DeleteTeamMember removes a team member. Deleting a missing id is not an
// error.
func DeleteTeamMember(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.TeamMember{}).Error
}

// ListTeamMembersByProject returns a project's team in insertion order.
func ListTeamMembersByProject(ctx context.Context, db *gorm.DB, projectID int64) ([]domain.TeamMember, error) {
	out := []domain.TeamMember{}
	err := db.WithContext(ctx).Where("project_id = ?", projectID).Order("id ASC").Find(&out).Error
	return out, err
}

// ListTeamMembersByUser returns a user's memberships in insertion order.
func ListTeamMembersByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.TeamMember, error) {
	out := []domain.TeamMember{}
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

// CountTeamMembers counts memberships, optionally for one project.
func CountTeamMembers(ctx context.Context, db *gorm.DB, projectID *int64) (int64, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.TeamMember{})
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	err := q.Count(&n).Error
	return n, err
}

// CountTeamMembersForOwner counts memberships across every project owned by
// ownerID.
func CountTeamMembersForOwner(ctx context.Context, db *gorm.DB, ownerID int64) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.TeamMember{}).
		Where("project_id IN (?)", db.Model(&domain.Project{}).Select("id").Where("owner_id = ?", ownerID)).
		Count(&n).Error
	return n, err
}

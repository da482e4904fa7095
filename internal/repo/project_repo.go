// Package repo – Projects
//
// Queries over the projects table, including the delete cascade.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// CreateProject inserts p as given.
func CreateProject(ctx context.Context, db *gorm.DB, p *domain.Project) error {
	return translate(db.WithContext(ctx).Create(p).Error)
}

// GetProject fetches a project by id or returns ErrNotFound.
func GetProject(ctx context.Context, db *gorm.DB, id int64) (*domain.Project, error) {
	var p domain.Project
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// SaveProject writes every column of an existing project.
func SaveProject(ctx context.Context, db *gorm.DB, p *domain.Project) error {
	return translate(db.WithContext(ctx).Save(p).Error)
}

// ListProjects returns projects in insertion order, optionally restricted to
// one owner.
func ListProjects(ctx context.Context, db *gorm.DB, ownerID *int64) ([]domain.Project, error) {
	out := []domain.Project{}
	q := db.WithContext(ctx).Order("id ASC")
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountProjects counts projects, optionally for one owner and/or one status.
// An empty status matches every status.
func CountProjects(ctx context.Context, db *gorm.DB, ownerID *int64, status string) (int64, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.Project{})
	if ownerID != nil {
		q = q.Where("owner_id = ?", *ownerID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

// DeleteProjectCascade removes a project together with its dependents.
//
// Behavior:
//   - Team members, deployments and activities of the project are deleted.
//   - Messages scoped to the project are kept.
//   - A missing project is not an error.
//   - Must run inside a transaction so a partial cascade never becomes
//     visible.
func DeleteProjectCascade(ctx context.Context, tx *gorm.DB, id int64) error {
	tx = tx.WithContext(ctx)
	for _, mdl := range []any{&domain.TeamMember{}, &domain.Deployment{}, &domain.Activity{}} {
		if err := tx.Where("project_id = ?", id).Delete(mdl).Error; err != nil {
			return err
		}
	}
	return tx.Where("id = ?", id).Delete(&domain.Project{}).Error
}

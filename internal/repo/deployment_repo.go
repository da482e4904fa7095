// Package repo – Deployments
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// CreateDeployment inserts d as given.
func CreateDeployment(ctx context.Context, db *gorm.DB, d *domain.Deployment) error {
	return translate(db.WithContext(ctx).Create(d).Error)
}

// GetDeployment fetches a deployment by id or returns ErrNotFound.
func GetDeployment(ctx context.Context, db *gorm.DB, id int64) (*domain.Deployment, error) {
	var d domain.Deployment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

// SaveDeployment writes every column of an existing deployment.
func SaveDeployment(ctx context.Context, db *gorm.DB, d *domain.Deployment) error {
	return translate(db.WithContext(ctx).Save(d).Error)
}

// DeleteDeployment removes a deployment. Deleting a missing id is not an
// error.
func DeleteDeployment(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Deployment{}).Error
}

// ListDeployments returns every deployment newest-first.
func ListDeployments(ctx context.Context, db *gorm.DB) ([]domain.Deployment, error) {
	out := []domain.Deployment{}
	err := db.WithContext(ctx).Order(newestFirst).Find(&out).Error
	return out, err
}

// ListDeploymentsByProject returns a project's deployments newest-first.
func ListDeploymentsByProject(ctx context.Context, db *gorm.DB, projectID int64) ([]domain.Deployment, error) {
	out := []domain.Deployment{}
	err := db.WithContext(ctx).Where("project_id = ?", projectID).Order(newestFirst).Find(&out).Error
	return out, err
}

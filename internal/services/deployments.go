// Package services – Deployments
//
// Deployment records per project. Status transitions are not enforced;
// any allowed status may follow any other.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// CreateDeployment records a deployment for a project.
//
// Behavior:
//   - Status defaults to "pending" and Environment to "staging".
//   - CreatedAt and UpdatedAt start equal.
func (s *Store) CreateDeployment(ctx context.Context, in domain.NewDeployment) (*domain.Deployment, error) {
	ctx, sp := span(ctx, "CreateDeployment",
		attribute.Int64("project.id", in.ProjectID),
		attribute.String("deployment.version", in.Version),
	)
	defer sp.End()

	if err := s.check(in); err != nil {
		return nil, err
	}
	d := &domain.Deployment{
		ProjectID:   in.ProjectID,
		Version:     in.Version,
		Status:      in.Status,
		Environment: in.Environment,
		Config:      in.Config,
	}
	if d.Status == "" {
		d.Status = domain.DefaultDeployStatus
	}
	if d.Environment == "" {
		d.Environment = domain.DefaultDeployEnv
	}

	err := s.insert(ctx, func(tx *gorm.DB, id int64, now time.Time) error {
		d.ID, d.CreatedAt, d.UpdatedAt = id, now, now
		return repo.CreateDeployment(ctx, tx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetDeployment returns the deployment with id or ErrNotFound.
func (s *Store) GetDeployment(ctx context.Context, id int64) (*domain.Deployment, error) {
	return repo.GetDeployment(ctx, s.reader(ctx), id)
}

// UpdateDeployment applies patch and refreshes UpdatedAt. UpdatedAt never
// moves backwards. Returns ErrNotFound for an unknown id.
func (s *Store) UpdateDeployment(ctx context.Context, id int64, patch domain.DeploymentPatch) (*domain.Deployment, error) {
	ctx, sp := span(ctx, "UpdateDeployment", attribute.Int64("deployment.id", id))
	defer sp.End()

	if err := s.check(patch); err != nil {
		return nil, err
	}
	var out *domain.Deployment
	err := s.mutate(ctx, func(tx *gorm.DB, now time.Time) error {
		d, err := repo.GetDeployment(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(d)
		d.UpdatedAt = notBefore(now, d.UpdatedAt)
		if err := repo.SaveDeployment(ctx, tx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	return out, err
}

// DeleteDeployment removes a deployment; missing ids are ignored.
func (s *Store) DeleteDeployment(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		return repo.DeleteDeployment(ctx, tx, id)
	})
}

// ListDeployments returns every deployment, newest first.
func (s *Store) ListDeployments(ctx context.Context) ([]domain.Deployment, error) {
	return repo.ListDeployments(ctx, s.reader(ctx))
}

// ListDeploymentsByProject returns a project's deployments, newest first.
func (s *Store) ListDeploymentsByProject(ctx context.Context, projectID int64) ([]domain.Deployment, error) {
	return repo.ListDeploymentsByProject(ctx, s.reader(ctx), projectID)
}

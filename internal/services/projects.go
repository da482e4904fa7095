// Package services – Projects
//
// Project CRUD on the Store. Ownership is checked inside the same
// transaction that writes the row, and deletion cascades to a project's
// team, deployments and activity entries.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// requireOwner fails with ErrValidation when ownerID names no user.
func requireOwner(ctx context.Context, tx *gorm.DB, ownerID int64) error {
	_, err := repo.GetUser(ctx, tx, ownerID)
	if errors.Is(err, repo.ErrNotFound) {
		return invalid("owner %d does not exist", ownerID)
	}
	return err
}

// CreateProject stores a project owned by in.OwnerID.
//
// Behavior:
//   - Name is trimmed before validation; an empty name is ErrValidation.
//   - Status defaults to "active" and Progress to 0.
//   - A missing owner is ErrValidation and consumes no id.
func (s *Store) CreateProject(ctx context.Context, in domain.NewProject) (*domain.Project, error) {
	ctx, sp := span(ctx, "CreateProject", attribute.Int64("project.owner_id", in.OwnerID))
	defer sp.End()

	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}

	p := &domain.Project{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		Progress:    domain.DefaultProjectProgress,
		Technology:  in.Technology,
		OwnerID:     in.OwnerID,
		Config:      in.Config,
	}
	if p.Status == "" {
		p.Status = domain.ProjectActive
	}
	if in.Progress != nil {
		p.Progress = *in.Progress
	}

	err := s.insert(ctx, func(tx *gorm.DB, id int64, now time.Time) error {
		if err := requireOwner(ctx, tx, p.OwnerID); err != nil {
			return err
		}
		p.ID, p.CreatedAt, p.UpdatedAt = id, now, now
		return repo.CreateProject(ctx, tx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject returns the project with id or ErrNotFound.
func (s *Store) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return repo.GetProject(ctx, s.reader(ctx), id)
}

// UpdateProject applies patch and refreshes UpdatedAt.
//
// Behavior:
//   - Fields absent from patch keep their stored values.
//   - Moving a project to another owner requires that user to exist.
//   - UpdatedAt never moves backwards, even if the clock does.
//   - Returns ErrNotFound for an unknown id.
func (s *Store) UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error) {
	ctx, sp := span(ctx, "UpdateProject", attribute.Int64("project.id", id))
	defer sp.End()

	if err := s.check(patch); err != nil {
		return nil, err
	}

	var out *domain.Project
	err := s.mutate(ctx, func(tx *gorm.DB, now time.Time) error {
		p, err := repo.GetProject(ctx, tx, id)
		if err != nil {
			return err
		}
		if patch.OwnerID != nil && *patch.OwnerID != p.OwnerID {
			if err := requireOwner(ctx, tx, *patch.OwnerID); err != nil {
				return err
			}
		}
		patch.Apply(p)
		p.UpdatedAt = notBefore(now, p.UpdatedAt)
		if err := repo.SaveProject(ctx, tx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// DeleteProject removes a project with its team members, deployments and
// activities in one transaction. Messages are kept. Deleting a missing
// project is a no-op.
func (s *Store) DeleteProject(ctx context.Context, id int64) error {
	ctx, sp := span(ctx, "DeleteProject", attribute.Int64("project.id", id))
	defer sp.End()

	return s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		return repo.DeleteProjectCascade(ctx, tx, id)
	})
}

// ListProjects returns projects in creation order, restricted to ownerID
// when it is non-nil.
func (s *Store) ListProjects(ctx context.Context, ownerID *int64) ([]domain.Project, error) {
	return repo.ListProjects(ctx, s.reader(ctx), ownerID)
}

// CountProjects counts projects, optionally for one owner.
func (s *Store) CountProjects(ctx context.Context, ownerID *int64) (int64, error) {
	return repo.CountProjects(ctx, s.reader(ctx), ownerID, "")
}

// CountActiveProjects counts projects with status "active".
func (s *Store) CountActiveProjects(ctx context.Context, ownerID *int64) (int64, error) {
	return repo.CountProjects(ctx, s.reader(ctx), ownerID, domain.ProjectActive)
}

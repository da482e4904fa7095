// Package services – Team
//
// Project membership records. Memberships reference users and projects by
// id only; removing a project removes its memberships with it.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// CreateTeamMember adds a user to a project team.
//
// Behavior:
//   - Role defaults to "member"; Permissions are stored as given.
//   - JoinedAt is stamped from the store clock.
//   - The same user may be added to a project more than once.
func (s *Store) CreateTeamMember(ctx context.Context, in domain.NewTeamMember) (*domain.TeamMember, error) {
	ctx, sp := span(ctx, "CreateTeamMember",
		attribute.Int64("project.id", in.ProjectID),
		attribute.Int64("user.id", in.UserID),
	)
	defer sp.End()

	if err := s.check(in); err != nil {
		return nil, err
	}
	tm := &domain.TeamMember{
		ProjectID:   in.ProjectID,
		UserID:      in.UserID,
		Role:        in.Role,
		Permissions: in.Permissions,
	}
	if tm.Role == "" {
		tm.Role = domain.DefaultMemberRole
	}

	err := s.insert(ctx, func(tx *gorm.DB, id int64, now time.Time) error {
		tm.ID, tm.JoinedAt = id, now
		return repo.CreateTeamMember(ctx, tx, tm)
	})
	if err != nil {
		return nil, err
	}
	return tm, nil
}

// GetTeamMember returns the membership with id or ErrNotFound.
func (s *Store) GetTeamMember(ctx context.Context, id int64) (*domain.TeamMember, error) {
	return repo.GetTeamMember(ctx, s.reader(ctx), id)
}

// UpdateTeamMember applies patch. JoinedAt never changes.
func (s *Store) UpdateTeamMember(ctx context.Context, id int64, patch domain.TeamMemberPatch) (*domain.TeamMember, error) {
	ctx, sp := span(ctx, "UpdateTeamMember", attribute.Int64("team_member.id", id))
	defer sp.End()

	if err := s.check(patch); err != nil {
		return nil, err
	}
	var out *domain.TeamMember
	err := s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		tm, err := repo.GetTeamMember(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(tm)
		if err := repo.SaveTeamMember(ctx, tx, tm); err != nil {
			return err
		}
		out = tm
		return nil
	})
	return out, err
}

// DeleteTeamMember removes a membership; missing ids are ignored.
func (s *Store) DeleteTeamMember(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		return repo.DeleteTeamMember(ctx, tx, id)
	})
}

// ListTeamMembersByProject returns a project's team in join order.
func (s *Store) ListTeamMembersByProject(ctx context.Context, projectID int64) ([]domain.TeamMember, error) {
	return repo.ListTeamMembersByProject(ctx, s.reader(ctx), projectID)
}

// ListTeamMembersByUser returns every membership held by userID.
func (s *Store) ListTeamMembersByUser(ctx context.Context, userID int64) ([]domain.TeamMember, error) {
	return repo.ListTeamMembersByUser(ctx, s.reader(ctx), userID)
}

// CountTeamMembers counts memberships, optionally of one project.
func (s *Store) CountTeamMembers(ctx context.Context, projectID *int64) (int64, error) {
	return repo.CountTeamMembers(ctx, s.reader(ctx), projectID)
}

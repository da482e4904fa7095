// Package services – Activities
//
// The append-only activity feed. Entries are written by the HTTP layer
// after a successful create and by the demo seed.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// Activity actions recorded by the HTTP layer and the demo seed.
const (
	ActionProjectCreated    = "project_created"
	ActionTeamMemberAdded   = "team_member_added"
	ActionDeploymentCreated = "deployment_created"
)

// CreateActivity appends an entry to the activity log.
func (s *Store) CreateActivity(ctx context.Context, in domain.NewActivity) (*domain.Activity, error) {
	ctx, sp := span(ctx, "CreateActivity", attribute.String("activity.action", in.Action))
	defer sp.End()

	if err := s.check(in); err != nil {
		return nil, err
	}
	a := &domain.Activity{
		UserID:      in.UserID,
		ProjectID:   in.ProjectID,
		Action:      in.Action,
		Description: in.Description,
		Metadata:    in.Metadata,
	}
	err := s.insert(ctx, func(tx *gorm.DB, id int64, now time.Time) error {
		a.ID, a.CreatedAt = id, now
		return repo.CreateActivity(ctx, tx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivity returns the activity with id or ErrNotFound.
func (s *Store) GetActivity(ctx context.Context, id int64) (*domain.Activity, error) {
	return repo.GetActivity(ctx, s.reader(ctx), id)
}

// DeleteActivity removes an activity; missing ids are ignored.
func (s *Store) DeleteActivity(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		return repo.DeleteActivity(ctx, tx, id)
	})
}

// ListActivities returns the newest activities across the studio.
func (s *Store) ListActivities(ctx context.Context, limit int) ([]domain.Activity, error) {
	return repo.ListActivities(ctx, s.reader(ctx), repo.ActivityFilter{Limit: limitOr(limit, DefaultActivityLimit)})
}

// ListActivitiesByProject returns a project's newest activities.
func (s *Store) ListActivitiesByProject(ctx context.Context, projectID int64, limit int) ([]domain.Activity, error) {
	return repo.ListActivities(ctx, s.reader(ctx), repo.ActivityFilter{
		ProjectID: &projectID,
		Limit:     limitOr(limit, DefaultActivityLimit),
	})
}

// ListActivitiesByUser returns the newest activities performed by userID.
func (s *Store) ListActivitiesByUser(ctx context.Context, userID int64, limit int) ([]domain.Activity, error) {
	return repo.ListActivities(ctx, s.reader(ctx), repo.ActivityFilter{
		UserID: &userID,
		Limit:  limitOr(limit, DefaultActivityLimit),
	})
}

// RecentActivities returns the activity feed for userID.
//
// Behavior:
//   - Includes entries the user performed.
//   - Includes everything on projects the user owns or is a team member of.
//   - A nil userID returns the newest entries overall.
//   - Results are newest first, capped at limit (DefaultRecentActivityLimit
//     when non-positive).
func (s *Store) RecentActivities(ctx context.Context, userID *int64, limit int) ([]domain.Activity, error) {
	limit = limitOr(limit, DefaultRecentActivityLimit)
	if userID == nil {
		return repo.ListActivities(ctx, s.reader(ctx), repo.ActivityFilter{Limit: limit})
	}
	return repo.ListRecentActivities(ctx, s.reader(ctx), *userID, limit)
}

// Package services – Analytics
//
// Read-only aggregates for the dashboard and the project progress view.
package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// ProjectProgressActivityLimit caps the activity list in ProjectProgress.
const ProjectProgressActivityLimit = 100

// Dashboard aggregates studio totals, optionally scoped to one user.
type Dashboard struct {
	TotalProjects    int64             `json:"totalProjects"`
	ActiveProjects   int64             `json:"activeProjects"`
	TotalMessages    int64             `json:"totalMessages"`
	TotalTeamMembers int64             `json:"totalTeamMembers"`
	RecentActivities []domain.Activity `json:"recentActivities"`
}

// ProjectProgress bundles everything the progress view of a project needs.
type ProjectProgress struct {
	Project     *domain.Project     `json:"project"`
	Activities  []domain.Activity   `json:"activities"`
	TeamMembers []domain.TeamMember `json:"teamMembers"`
	Deployments []domain.Deployment `json:"deployments"`
	Progress    int                 `json:"progress"`
}

// Dashboard computes the totals.
//
// Behavior:
//   - Without a userID every count is studio-wide.
//   - With a userID, projects are those the user owns, messages those the
//     user wrote and team members those on the user's projects.
//   - ActiveProjects counts projects with status "active" in the same scope.
func (s *Store) Dashboard(ctx context.Context, userID *int64) (*Dashboard, error) {
	ctx, sp := span(ctx, "Dashboard")
	defer sp.End()
	if userID != nil {
		sp.SetAttributes(attribute.Int64("user.id", *userID))
	}

	var (
		d   Dashboard
		err error
	)
	if d.TotalProjects, err = s.CountProjects(ctx, userID); err != nil {
		return nil, err
	}
	if d.ActiveProjects, err = s.CountActiveProjects(ctx, userID); err != nil {
		return nil, err
	}
	if d.TotalMessages, err = s.CountMessages(ctx, userID); err != nil {
		return nil, err
	}
	if userID != nil {
		d.TotalTeamMembers, err = repo.CountTeamMembersForOwner(ctx, s.reader(ctx), *userID)
	} else {
		d.TotalTeamMembers, err = s.CountTeamMembers(ctx, nil)
	}
	if err != nil {
		return nil, err
	}
	if d.RecentActivities, err = s.RecentActivities(ctx, userID, DefaultRecentActivityLimit); err != nil {
		return nil, err
	}
	return &d, nil
}

// ProjectProgress loads a project with its latest activities, team and
// deployments. A missing project yields ErrNotFound.
func (s *Store) ProjectProgress(ctx context.Context, projectID int64) (*ProjectProgress, error) {
	ctx, sp := span(ctx, "ProjectProgress", attribute.Int64("project.id", projectID))
	defer sp.End()

	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := &ProjectProgress{Project: p, Progress: p.Progress}
	if out.Activities, err = s.ListActivitiesByProject(ctx, projectID, ProjectProgressActivityLimit); err != nil {
		return nil, err
	}
	if out.TeamMembers, err = s.ListTeamMembersByProject(ctx, projectID); err != nil {
		return nil, err
	}
	if out.Deployments, err = s.ListDeploymentsByProject(ctx, projectID); err != nil {
		return nil, err
	}
	return out, nil
}

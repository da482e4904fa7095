// Package services – Demo seed
//
// Seed data for a fresh studio. Seeding goes through the public Store
// operations, so it exercises the same validation and cascades as live
// traffic.
package services

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

const (
	avatarMale   = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?ixlib=rb-4.0.3&auto=format&fit=crop&w=64&h=64"
	avatarFemale = "https://images.unsplash.com/photo-1494790108755-2616b612b786?ixlib=rb-4.0.3&auto=format&fit=crop&w=64&h=64"
	avatarOther  = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?ixlib=rb-4.0.3&auto=format&fit=crop&w=64&h=64"
)

// strp and intp take the address of a literal for optional seed fields.
func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

// SeedDemoData populates an empty store with the demo studio: an admin, three
// team members, three projects, their teams, two deployments and a few
// activities. It does nothing when any user already exists.
func (s *Store) SeedDemoData(ctx context.Context) error {
	if n, err := s.CountUsers(ctx); err != nil || n > 0 {
		return err
	}

	users := []domain.NewUser{
		{Username: "admin", Email: "admin@wolfomanai.com", Password: "admin123", Role: "admin", Avatar: strp(avatarMale), Status: domain.StatusOnline},
		{Username: "ahmed_dev", Email: "ahmed@wolfomanai.com", Password: "password123", Role: "developer", Avatar: strp(avatarMale), Status: domain.StatusOnline},
		{Username: "sara_designer", Email: "sara@wolfomanai.com", Password: "password123", Role: "designer", Avatar: strp(avatarFemale), Status: domain.StatusBusy},
		{Username: "khalid_backend", Email: "khalid@wolfomanai.com", Password: "password123", Role: "developer", Avatar: strp(avatarOther), Status: domain.StatusOffline},
	}
	ids := make([]int64, len(users))
	for i, in := range users {
		u, err := s.CreateUser(ctx, in)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", in.Username, err)
		}
		ids[i] = u.ID
	}
	admin, ahmed, sara, khalid := ids[0], ids[1], ids[2], ids[3]

	projects := []domain.NewProject{
		{
			Name:        "تطبيق إدارة المهام",
			Description: strp("تطبيق متقدم لإدارة المهام والمشاريع بتصميم cyberpunk"),
			Status:      domain.ProjectActive,
			Progress:    intp(75),
			Technology:  "React + TypeScript",
			OwnerID:     admin,
			Config: datatypes.JSONMap{
				"theme":    "cyberpunk",
				"features": []any{"authentication", "real-time", "analytics"},
			},
		},
		{
			Name:        "تطبيق الطقس",
			Description: strp("تطبيق للطقس مع واجهة مستخدم جذابة"),
			Status:      domain.ProjectActive,
			Progress:    intp(50),
			Technology:  "React Native",
			OwnerID:     admin,
			Config: datatypes.JSONMap{
				"platform": "mobile",
				"apis":     []any{"weather-api", "geolocation"},
			},
		},
		{
			Name:        "API خدمات الويب",
			Description: strp("واجهة برمجية متقدمة للخدمات السحابية"),
			Status:      domain.ProjectCompleted,
			Progress:    intp(100),
			Technology:  "Node.js + Express",
			OwnerID:     admin,
			Config: datatypes.JSONMap{
				"deployment": "aws",
				"database":   "postgresql",
			},
		},
	}
	pids := make([]int64, len(projects))
	for i, in := range projects {
		p, err := s.CreateProject(ctx, in)
		if err != nil {
			return fmt.Errorf("seed project %d: %w", i, err)
		}
		pids[i] = p.ID
	}
	p1, p2 := pids[0], pids[1]

	members := []domain.NewTeamMember{
		{ProjectID: p1, UserID: ahmed, Role: "developer", Permissions: datatypes.JSONMap{"read": true, "write": true, "deploy": false}},
		{ProjectID: p1, UserID: sara, Role: "designer", Permissions: datatypes.JSONMap{"read": true, "write": true, "deploy": false}},
		{ProjectID: p2, UserID: khalid, Role: "developer", Permissions: datatypes.JSONMap{"read": true, "write": true, "deploy": true}},
	}
	for _, in := range members {
		if _, err := s.CreateTeamMember(ctx, in); err != nil {
			return fmt.Errorf("seed team member: %w", err)
		}
	}

	deployments := []domain.NewDeployment{
		{ProjectID: p1, Version: "v2.1.0", Status: "live", Environment: "production", Config: datatypes.JSONMap{"url": "https://task-manager.wolfomanai.com", "server": "aws-ec2"}},
		{ProjectID: p2, Version: "v1.3.0-beta", Status: "pending", Environment: "staging", Config: datatypes.JSONMap{"url": "https://staging-weather.wolfomanai.com", "server": "aws-ec2"}},
	}
	for _, in := range deployments {
		if _, err := s.CreateDeployment(ctx, in); err != nil {
			return fmt.Errorf("seed deployment: %w", err)
		}
	}

	activities := []domain.NewActivity{
		{UserID: ahmed, ProjectID: &p1, Action: "task_completed", Description: strp("أكمل مهمة تطوير API المستخدمين"), Metadata: datatypes.JSONMap{"taskId": "auth-001"}},
		{UserID: sara, ProjectID: &p1, Action: "design_uploaded", Description: strp("رفعت تصاميم جديدة للمراجعة"), Metadata: datatypes.JSONMap{"fileCount": 5, "designType": "UI mockups"}},
		{UserID: khalid, ProjectID: &p2, Action: "code_merged", Description: strp("دمج تحديثات قاعدة البيانات"), Metadata: datatypes.JSONMap{"branch": "feature/database-updates", "commits": 3}},
	}
	for _, in := range activities {
		if _, err := s.CreateActivity(ctx, in); err != nil {
			return fmt.Errorf("seed activity %s: %w", in.Action, err)
		}
	}
	return nil
}

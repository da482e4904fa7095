// Package domain – Inputs
//
// Create payloads and partial-update patches. The `binding` tags are read
// both by gin for HTTP bodies and by the store's validator, so every entry
// point enforces the same rules.
package domain

import "gorm.io/datatypes"

// NewUser is the payload accepted when registering a user. Omitted Role and
// Status fall back to DefaultUserRole and StatusOffline.
type NewUser struct {
	Username string  `json:"username" binding:"required,min=1,max=64"  example:"admin"`
	Email    string  `json:"email"    binding:"required,email,max=255" example:"admin@wolfomanai.com"`
	Password string  `json:"password" binding:"required,min=1,max=72"  example:"admin123"`
	Role     string  `json:"role"     binding:"omitempty,max=32"       example:"admin"`
	Avatar   *string `json:"avatar"`
	Status   string  `json:"status"   binding:"omitempty,oneof=online offline busy" example:"online"`
}

// UserPatch carries the mutable user fields. Nil fields are left unchanged.
type UserPatch struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email"    binding:"omitempty,email,max=255"`
	Password *string `json:"password" binding:"omitempty,min=1,max=72"`
	Role     *string `json:"role"     binding:"omitempty,min=1,max=32"`
	Avatar   *string `json:"avatar"`
	Status   *string `json:"status"   binding:"omitempty,oneof=online offline busy"`
}

// NewProject is the payload for creating a project.
type NewProject struct {
	Name        string            `json:"name"        binding:"required,min=1,max=255" example:"P1"`
	Description *string           `json:"description"`
	Status      string            `json:"status"      binding:"omitempty,oneof=active completed paused" example:"active"`
	Progress    *int              `json:"progress"    binding:"omitempty,min=0,max=100" example:"0"`
	Technology  string            `json:"technology"  binding:"required,min=1,max=255" example:"React + TypeScript"`
	OwnerID     int64             `json:"ownerId"     binding:"required,min=1" example:"1"`
	Config      datatypes.JSONMap `json:"config"      swaggertype:"object"`
}

// ProjectPatch carries the mutable project fields.
type ProjectPatch struct {
	Name        *string            `json:"name"        binding:"omitempty,min=1,max=255"`
	Description *string            `json:"description"`
	Status      *string            `json:"status"      binding:"omitempty,oneof=active completed paused"`
	Progress    *int               `json:"progress"    binding:"omitempty,min=0,max=100"`
	Technology  *string            `json:"technology"  binding:"omitempty,min=1,max=255"`
	OwnerID     *int64             `json:"ownerId"     binding:"omitempty,min=1"`
	Config      *datatypes.JSONMap `json:"config"      swaggertype:"object"`
}

// NewMessage is the payload for persisting a chat message.
type NewMessage struct {
	Content   string            `json:"content"   binding:"required,min=1" example:"hi"`
	Type      string            `json:"type"      binding:"omitempty,oneof=user ai" example:"user"`
	UserID    *int64            `json:"userId"    binding:"omitempty,min=1"`
	ProjectID *int64            `json:"projectId" binding:"omitempty,min=1"`
	Metadata  datatypes.JSONMap `json:"metadata"  swaggertype:"object"`
}

// NewTeamMember is the payload for adding a user to a project team.
type NewTeamMember struct {
	ProjectID   int64             `json:"projectId"   binding:"required,min=1" example:"2"`
	UserID      int64             `json:"userId"      binding:"required,min=1" example:"1"`
	Role        string            `json:"role"        binding:"omitempty,max=32" example:"developer"`
	Permissions datatypes.JSONMap `json:"permissions" swaggertype:"object"`
}

// TeamMemberPatch carries the mutable team member fields.
type TeamMemberPatch struct {
	ProjectID   *int64             `json:"projectId"   binding:"omitempty,min=1"`
	UserID      *int64             `json:"userId"      binding:"omitempty,min=1"`
	Role        *string            `json:"role"        binding:"omitempty,min=1,max=32"`
	Permissions *datatypes.JSONMap `json:"permissions" swaggertype:"object"`
}

// NewDeployment is the payload for recording a deployment.
type NewDeployment struct {
	ProjectID   int64             `json:"projectId"   binding:"required,min=1" example:"2"`
	Version     string            `json:"version"     binding:"required,min=1,max=64" example:"v1.0.0"`
	Status      string            `json:"status"      binding:"omitempty,max=16" example:"pending"`
	Environment string            `json:"environment" binding:"omitempty,max=32" example:"staging"`
	Config      datatypes.JSONMap `json:"config"      swaggertype:"object"`
}

// DeploymentPatch carries the mutable deployment fields.
type DeploymentPatch struct {
	Version     *string            `json:"version"     binding:"omitempty,min=1,max=64"`
	Status      *string            `json:"status"      binding:"omitempty,min=1,max=16"`
	Environment *string            `json:"environment" binding:"omitempty,min=1,max=32"`
	Config      *datatypes.JSONMap `json:"config"      swaggertype:"object"`
}

// NewActivity is the payload for appending an activity entry.
type NewActivity struct {
	UserID      int64             `json:"userId"      binding:"required,min=1"`
	ProjectID   *int64            `json:"projectId"   binding:"omitempty,min=1"`
	Action      string            `json:"action"      binding:"required,min=1,max=64"`
	Description *string           `json:"description"`
	Metadata    datatypes.JSONMap `json:"metadata"    swaggertype:"object"`
}

// Apply merges the patch into u.
//
// Behavior:
//   - Nil fields leave u unchanged.
//   - Password is not touched here; the store hashes and applies it.
//   - Timestamps are the caller's responsibility.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Avatar != nil {
		u.Avatar = p.Avatar
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
}

// Apply merges the patch into pr.
func (p ProjectPatch) Apply(pr *Project) {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = p.Description
	}
	if p.Status != nil {
		pr.Status = *p.Status
	}
	if p.Progress != nil {
		pr.Progress = *p.Progress
	}
	if p.Technology != nil {
		pr.Technology = *p.Technology
	}
	if p.OwnerID != nil {
		pr.OwnerID = *p.OwnerID
	}
	if p.Config != nil {
		pr.Config = *p.Config
	}
}

// Apply merges the patch into tm.
func (p TeamMemberPatch) Apply(tm *TeamMember) {
	if p.ProjectID != nil {
		tm.ProjectID = *p.ProjectID
	}
	if p.UserID != nil {
		tm.UserID = *p.UserID
	}
	if p.Role != nil {
		tm.Role = *p.Role
	}
	if p.Permissions != nil {
		tm.Permissions = *p.Permissions
	}
}

// Apply merges the patch into d.
func (p DeploymentPatch) Apply(d *Deployment) {
	if p.Version != nil {
		d.Version = *p.Version
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Environment != nil {
		d.Environment = *p.Environment
	}
	if p.Config != nil {
		d.Config = *p.Config
	}
}

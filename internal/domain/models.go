// Package domain defines the studio's persistence models: users, projects,
// messages, team members, deployments and activities. The types are mapped
// with GORM and double as the JSON wire shapes used by the HTTP API and the
// realtime WebSocket events.
//
// Identifiers come from one process-wide sequence owned by the store, so the
// primary keys are never auto-incremented by the database.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Enumerations used by the entities.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusBusy    = "busy"

	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectPaused    = "paused"

	MessageUser = "user"
	MessageAI   = "ai"

	DefaultUserRole        = "user"
	DefaultMemberRole      = "member"
	DefaultDeployStatus    = "pending"
	DefaultDeployEnv       = "staging"
	DefaultProjectProgress = 0
)

// User is a studio account. Password holds a bcrypt hash and is never
// serialized.
type User struct {
	ID        int64     `json:"id"        gorm:"primaryKey;autoIncrement:false"`
	Username  string    `json:"username"  gorm:"type:varchar(64);not null;uniqueIndex:ux_users_username"`
	Email     string    `json:"email"     gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	Password  string    `json:"-"         gorm:"type:varchar(255);not null"`
	Role      string    `json:"role"      gorm:"type:varchar(32);not null"`
	Avatar    *string   `json:"avatar"    gorm:"type:text"`
	Status    string    `json:"status"    gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Project is owned by one user and groups team members, deployments,
// activities and chat messages.
type Project struct {
	ID          int64             `json:"id"          gorm:"primaryKey;autoIncrement:false"`
	Name        string            `json:"name"        gorm:"type:varchar(255);not null"`
	Description *string           `json:"description" gorm:"type:text"`
	Status      string            `json:"status"      gorm:"type:varchar(16);not null"`
	Progress    int               `json:"progress"    gorm:"not null"`
	Technology  string            `json:"technology"  gorm:"type:varchar(255);not null"`
	OwnerID     int64             `json:"ownerId"     gorm:"not null;index:idx_projects_owner"`
	Config      datatypes.JSONMap `json:"config"      swaggertype:"object"`
	CreatedAt   time.Time         `json:"createdAt"   gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time         `json:"updatedAt"   gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the database table name for Project.
func (Project) TableName() string { return "projects" }

// Message is a chat utterance. Assistant messages carry a nil UserID and the
// generating model under Metadata["aiModel"].
type Message struct {
	ID        int64             `json:"id"        gorm:"primaryKey;autoIncrement:false"`
	Content   string            `json:"content"   gorm:"type:text;not null"`
	Type      string            `json:"type"      gorm:"type:varchar(8);not null"`
	UserID    *int64            `json:"userId"    gorm:"index:idx_messages_user"`
	ProjectID *int64            `json:"projectId" gorm:"index:idx_messages_project"`
	Metadata  datatypes.JSONMap `json:"metadata"  swaggertype:"object"`
	CreatedAt time.Time         `json:"createdAt" gorm:"not null;autoCreateTime:false"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// TeamMember links a user to a project. The (project, user) pair is not
// unique.
type TeamMember struct {
	ID          int64             `json:"id"          gorm:"primaryKey;autoIncrement:false"`
	ProjectID   int64             `json:"projectId"   gorm:"not null;index:idx_team_project"`
	UserID      int64             `json:"userId"      gorm:"not null;index:idx_team_user"`
	Role        string            `json:"role"        gorm:"type:varchar(32);not null"`
	Permissions datatypes.JSONMap `json:"permissions" swaggertype:"object"`
	JoinedAt    time.Time         `json:"joinedAt"    gorm:"not null"`
}

// TableName returns the database table name for TeamMember.
func (TeamMember) TableName() string { return "team_members" }

// Deployment is a released version of a project in some environment.
type Deployment struct {
	ID          int64             `json:"id"          gorm:"primaryKey;autoIncrement:false"`
	ProjectID   int64             `json:"projectId"   gorm:"not null;index:idx_deployments_project"`
	Version     string            `json:"version"     gorm:"type:varchar(64);not null"`
	Status      string            `json:"status"      gorm:"type:varchar(16);not null"`
	Environment string            `json:"environment" gorm:"type:varchar(32);not null"`
	Config      datatypes.JSONMap `json:"config"      swaggertype:"object"`
	CreatedAt   time.Time         `json:"createdAt"   gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time         `json:"updatedAt"   gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the database table name for Deployment.
func (Deployment) TableName() string { return "deployments" }

// Activity is an append-only audit entry.
type Activity struct {
	ID          int64             `json:"id"          gorm:"primaryKey;autoIncrement:false"`
	UserID      int64             `json:"userId"      gorm:"not null;index:idx_activities_user"`
	ProjectID   *int64            `json:"projectId"   gorm:"index:idx_activities_project"`
	Action      string            `json:"action"      gorm:"type:varchar(64);not null"`
	Description *string           `json:"description" gorm:"type:text"`
	Metadata    datatypes.JSONMap `json:"metadata"    swaggertype:"object"`
	CreatedAt   time.Time         `json:"createdAt"   gorm:"not null;autoCreateTime:false"`
}

// TableName returns the database table name for Activity.
func (Activity) TableName() string { return "activities" }

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Project{},
		&Message{},
		&TeamMember{},
		&Deployment{},
		&Activity{},
		&Idempotency{},
	}
}

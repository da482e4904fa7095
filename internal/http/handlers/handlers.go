// Package handlers implements the studio's REST API on top of the store and
// the AI responder.
//
// Handlers are transport-thin: they bind and validate input, call the store
// or responder, and translate sentinel errors into the shared error envelope
// (see response.go). Creating a project, a team member or a deployment also
// appends an entry to the activity feed.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/ai"
	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/http/middleware"
	"github.com/tbourn/wolfoman-studio/internal/services"
	"github.com/tbourn/wolfoman-studio/internal/utils"
)

//
// Store contracts
//

// UserStore covers accounts and sign-in.
type UserStore interface {
	CreateUser(ctx context.Context, in domain.NewUser) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
	Logout(ctx context.Context, userID int64) error
}

// ProjectStore covers projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, in domain.NewProject) (*domain.Project, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	UpdateProject(ctx context.Context, id int64, patch domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	ListProjects(ctx context.Context, ownerID *int64) ([]domain.Project, error)
}

// MessageStore covers chat messages and idempotent creation.
type MessageStore interface {
	CreateMessage(ctx context.Context, in domain.NewMessage) (*domain.Message, error)
	ListMessages(ctx context.Context, limit int) ([]domain.Message, error)
	ListMessagesByProject(ctx context.Context, projectID int64, limit int) ([]domain.Message, error)
	ListMessagesByUser(ctx context.Context, userID int64, limit int) ([]domain.Message, error)
	ReplayMessage(ctx context.Context, scope, key string) (*domain.Message, error)
	RecordIdempotency(ctx context.Context, scope, key string, messageID int64, status int, ttl time.Duration) error
}

// TeamStore covers project team membership.
type TeamStore interface {
	CreateTeamMember(ctx context.Context, in domain.NewTeamMember) (*domain.TeamMember, error)
	UpdateTeamMember(ctx context.Context, id int64, patch domain.TeamMemberPatch) (*domain.TeamMember, error)
	DeleteTeamMember(ctx context.Context, id int64) error
	ListTeamMembersByProject(ctx context.Context, projectID int64) ([]domain.TeamMember, error)
}

// DeploymentStore covers deployments.
type DeploymentStore interface {
	CreateDeployment(ctx context.Context, in domain.NewDeployment) (*domain.Deployment, error)
	UpdateDeployment(ctx context.Context, id int64, patch domain.DeploymentPatch) (*domain.Deployment, error)
	ListDeployments(ctx context.Context) ([]domain.Deployment, error)
	ListDeploymentsByProject(ctx context.Context, projectID int64) ([]domain.Deployment, error)
}

// ActivityStore covers the audit trail and the analytics built on it.
type ActivityStore interface {
	CreateActivity(ctx context.Context, in domain.NewActivity) (*domain.Activity, error)
	ListActivities(ctx context.Context, limit int) ([]domain.Activity, error)
	ListActivitiesByProject(ctx context.Context, projectID int64, limit int) ([]domain.Activity, error)
	ListActivitiesByUser(ctx context.Context, userID int64, limit int) ([]domain.Activity, error)
	Dashboard(ctx context.Context, userID *int64) (*services.Dashboard, error)
	ProjectProgress(ctx context.Context, projectID int64) (*services.ProjectProgress, error)
}

// Store is everything the API needs from persistence. *services.Store
// satisfies it.
type Store interface {
	UserStore
	ProjectStore
	MessageStore
	TeamStore
	DeploymentStore
	ActivityStore
}

// Assistant answers chat and code requests. *ai.Responder satisfies it.
type Assistant interface {
	Reply(ctx context.Context, text, model string) (string, string)
	IsConfigured() bool
	AvailableModels() []string
	GenerateChatResponse(ctx context.Context, text, model string) (string, error)
	GenerateCode(ctx context.Context, prompt, language, model string) (string, error)
	FallbackReply(text string) string
	MockCode(prompt, language string) string
}

//
// Handler wiring
//

// Options tunes handler behavior.
type Options struct {
	// IdempotencyTTL is how long an Idempotency-Key replays its message.
	IdempotencyTTL time.Duration
}

// Handlers groups every API endpoint.
type Handlers struct {
	store   Store
	ai      Assistant
	idemTTL time.Duration
}

// New binds the handlers to a store and an assistant.
func New(store Store, assistant Assistant, opts Options) *Handlers {
	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{store: store, ai: assistant, idemTTL: ttl}
}

//
// Helpers
//

// SuccessResponse is returned by endpoints that only acknowledge.
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// pathID parses a positive integer path parameter, writing a 400 when it
// is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
	}
	return id, ok
}

// queryID parses an optional positive integer query parameter. An absent
// value yields nil; a malformed one writes a 400.
func queryID(c *gin.Context, name string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, ok := utils.ParseID(raw)
	if !ok {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, name+" must be a positive integer")
		return nil, false
	}
	return &id, true
}

// queryLimit reads ?limit=, falling back to def for absent or non-positive
// values and capping at max.
func queryLimit(c *gin.Context, def, max int) int {
	n := utils.AtoiDefault(strings.TrimSpace(c.Query("limit")), def)
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}

// bindJSON decodes the body into v, writing a 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// storeError maps sentinel errors onto the error envelope. what names the
// resource in not-found messages.
func storeError(c *gin.Context, err error, what string) {
	var pe *ai.ProviderError
	switch {
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, what+" not found")
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicate):
		fail(c, http.StatusConflict, ErrCodeConflict, what+" already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
	case errors.As(err, &pe):
		fail(c, http.StatusBadGateway, ErrCodeProvider, pe.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		fail(c, http.StatusGatewayTimeout, ErrCodeTimeout, "request timed out")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// audit appends an activity entry. Failures are logged, never surfaced: the
// primary write already succeeded.
func (h *Handlers) audit(c *gin.Context, in domain.NewActivity) {
	if _, err := h.store.CreateActivity(c.Request.Context(), in); err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Str("action", in.Action).Msg("activity not recorded")
	}
}

func strp(s string) *string { return &s }

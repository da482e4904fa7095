package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// ListTeam godoc
// @ID          listTeam
// @Summary     List a project's team
// @Tags        Teams
// @Produce     json
// @Param       projectId  path      int  true  "Project ID"
// @Success     200        {array}   domain.TeamMember
// @Failure     400        {object}  handlers.ErrorResponse
// @Router      /teams/{projectId} [get]
func (h *Handlers) ListTeam(c *gin.Context) {
	projectID, valid := pathID(c, "projectId")
	if !valid {
		return
	}
	members, err := h.store.ListTeamMembersByProject(c.Request.Context(), projectID)
	if err != nil {
		storeError(c, err, "team")
		return
	}
	ok(c, http.StatusOK, members)
}

// AddTeamMember godoc
// @ID          addTeamMember
// @Summary     Add a team member
// @Tags        Teams
// @Accept      json
// @Produce     json
// @Param       body  body      domain.NewTeamMember  true  "Membership"
// @Success     201   {object}  domain.TeamMember
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /teams [post]
func (h *Handlers) AddTeamMember(c *gin.Context) {
	var in domain.NewTeamMember
	if !bindJSON(c, &in) {
		return
	}
	tm, err := h.store.CreateTeamMember(c.Request.Context(), in)
	if err != nil {
		storeError(c, err, "team member")
		return
	}
	h.audit(c, domain.NewActivity{
		UserID:      tm.UserID,
		ProjectID:   &tm.ProjectID,
		Action:      services.ActionTeamMemberAdded,
		Description: strp("Added to project team"),
	})
	ok(c, http.StatusCreated, tm)
}

// UpdateTeamMember godoc
// @ID          updateTeamMember
// @Summary     Patch a team member
// @Tags        Teams
// @Accept      json
// @Produce     json
// @Param       id    path      int                     true  "Team member ID"
// @Param       body  body      domain.TeamMemberPatch  true  "Fields to change"
// @Success     200   {object}  domain.TeamMember
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /teams/{id} [put]
func (h *Handlers) UpdateTeamMember(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var patch domain.TeamMemberPatch
	if !bindJSON(c, &patch) {
		return
	}
	tm, err := h.store.UpdateTeamMember(c.Request.Context(), id, patch)
	if err != nil {
		storeError(c, err, "team member")
		return
	}
	ok(c, http.StatusOK, tm)
}

// RemoveTeamMember godoc
// @ID          removeTeamMember
// @Summary     Remove a team member
// @Tags        Teams
// @Produce     json
// @Param       id   path      int  true  "Team member ID"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /teams/{id} [delete]
func (h *Handlers) RemoveTeamMember(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.store.DeleteTeamMember(c.Request.Context(), id); err != nil {
		storeError(c, err, "team member")
		return
	}
	success(c)
}

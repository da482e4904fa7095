// Project handlers.
//
//   - GET    /projects?userId=   list, optionally by owner
//   - GET    /projects/{id}
//   - POST   /projects           create and record project_created
//   - PUT    /projects/{id}
//   - DELETE /projects/{id}      cascade to team, deployments and activities

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// ListProjects godoc
// @ID          listProjects
// @Summary     List projects
// @Tags        Projects
// @Produce     json
// @Param       userId  query     int  false  "Owner filter"
// @Success     200     {array}   domain.Project
// @Failure     400     {object}  handlers.ErrorResponse
// @Router      /projects [get]
func (h *Handlers) ListProjects(c *gin.Context) {
	owner, valid := queryID(c, "userId")
	if !valid {
		return
	}
	projects, err := h.store.ListProjects(c.Request.Context(), owner)
	if err != nil {
		storeError(c, err, "projects")
		return
	}
	ok(c, http.StatusOK, projects)
}

// GetProject godoc
// @ID          getProject
// @Summary     Get a project
// @Tags        Projects
// @Produce     json
// @Param       id   path      int  true  "Project ID"
// @Success     200  {object}  domain.Project
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /projects/{id} [get]
func (h *Handlers) GetProject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	p, err := h.store.GetProject(c.Request.Context(), id)
	if err != nil {
		storeError(c, err, "project")
		return
	}
	ok(c, http.StatusOK, p)
}

// CreateProject godoc
// @ID          createProject
// @Summary     Create a project
// @Description Creates the project and records a project_created activity for its owner.
// @Tags        Projects
// @Accept      json
// @Produce     json
// @Param       body  body      domain.NewProject  true  "Project"
// @Success     201   {object}  domain.Project
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /projects [post]
func (h *Handlers) CreateProject(c *gin.Context) {
	var in domain.NewProject
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.store.CreateProject(c.Request.Context(), in)
	if err != nil {
		storeError(c, err, "project")
		return
	}
	h.audit(c, domain.NewActivity{
		UserID:      p.OwnerID,
		ProjectID:   &p.ID,
		Action:      services.ActionProjectCreated,
		Description: strp("Created project: " + p.Name),
	})
	ok(c, http.StatusCreated, p)
}

// UpdateProject godoc
// @ID          updateProject
// @Summary     Patch a project
// @Tags        Projects
// @Accept      json
// @Produce     json
// @Param       id    path      int                  true  "Project ID"
// @Param       body  body      domain.ProjectPatch  true  "Fields to change"
// @Success     200   {object}  domain.Project
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /projects/{id} [put]
func (h *Handlers) UpdateProject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var patch domain.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.store.UpdateProject(c.Request.Context(), id, patch)
	if err != nil {
		storeError(c, err, "project")
		return
	}
	ok(c, http.StatusOK, p)
}

// DeleteProject godoc
// @ID          deleteProject
// @Summary     Delete a project
// @Description Removes the project with its team members, deployments and activities. Messages are kept.
// @Tags        Projects
// @Produce     json
// @Param       id   path      int  true  "Project ID"
// @Success     200  {object}  handlers.SuccessResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /projects/{id} [delete]
func (h *Handlers) DeleteProject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.store.DeleteProject(c.Request.Context(), id); err != nil {
		storeError(c, err, "project")
		return
	}
	success(c)
}

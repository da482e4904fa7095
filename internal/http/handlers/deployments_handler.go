package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// ListDeployments godoc
// @ID          listDeployments
// @Summary     List deployments
// @Description Newest first, optionally restricted to one project.
// @Tags        Deployments
// @Produce     json
// @Param       projectId  query     int  false  "Project filter"
// @Success     200        {array}   domain.Deployment
// @Failure     400        {object}  handlers.ErrorResponse
// @Router      /deployments [get]
func (h *Handlers) ListDeployments(c *gin.Context) {
	projectID, valid := queryID(c, "projectId")
	if !valid {
		return
	}
	var (
		deps []domain.Deployment
		err  error
	)
	if projectID != nil {
		deps, err = h.store.ListDeploymentsByProject(c.Request.Context(), *projectID)
	} else {
		deps, err = h.store.ListDeployments(c.Request.Context())
	}
	if err != nil {
		storeError(c, err, "deployments")
		return
	}
	ok(c, http.StatusOK, deps)
}

// CreateDeployment godoc
// @ID          createDeployment
// @Summary     Record a deployment
// @Description When the project exists, a deployment_created activity is recorded for its owner.
// @Tags        Deployments
// @Accept      json
// @Produce     json
// @Param       body  body      domain.NewDeployment  true  "Deployment"
// @Success     201   {object}  domain.Deployment
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /deployments [post]
func (h *Handlers) CreateDeployment(c *gin.Context) {
	var in domain.NewDeployment
	if !bindJSON(c, &in) {
		return
	}
	ctx := c.Request.Context()
	d, err := h.store.CreateDeployment(ctx, in)
	if err != nil {
		storeError(c, err, "deployment")
		return
	}

	p, err := h.store.GetProject(ctx, d.ProjectID)
	switch {
	case err == nil:
		h.audit(c, domain.NewActivity{
			UserID:      p.OwnerID,
			ProjectID:   &p.ID,
			Action:      services.ActionDeploymentCreated,
			Description: strp(fmt.Sprintf("Deployed %s to %s", d.Version, d.Environment)),
		})
	case !errors.Is(err, services.ErrNotFound):
		storeError(c, err, "project")
		return
	}
	ok(c, http.StatusCreated, d)
}

// UpdateDeployment godoc
// @ID          updateDeployment
// @Summary     Patch a deployment
// @Tags        Deployments
// @Accept      json
// @Produce     json
// @Param       id    path      int                     true  "Deployment ID"
// @Param       body  body      domain.DeploymentPatch  true  "Fields to change"
// @Success     200   {object}  domain.Deployment
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /deployments/{id} [put]
func (h *Handlers) UpdateDeployment(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var patch domain.DeploymentPatch
	if !bindJSON(c, &patch) {
		return
	}
	d, err := h.store.UpdateDeployment(c.Request.Context(), id, patch)
	if err != nil {
		storeError(c, err, "deployment")
		return
	}
	ok(c, http.StatusOK, d)
}

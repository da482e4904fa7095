package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 500
)

// ListActivities godoc
// @ID          listActivities
// @Summary     List activities
// @Description Newest first. projectId takes precedence over userId.
// @Tags        Activities
// @Produce     json
// @Param       projectId  query     int  false  "Project filter"
// @Param       userId     query     int  false  "Actor filter"
// @Param       limit      query     int  false  "Max results (default 20)"
// @Success     200        {array}   domain.Activity
// @Failure     400        {object}  handlers.ErrorResponse
// @Router      /activities [get]
func (h *Handlers) ListActivities(c *gin.Context) {
	projectID, valid := queryID(c, "projectId")
	if !valid {
		return
	}
	userID, valid := queryID(c, "userId")
	if !valid {
		return
	}
	limit := queryLimit(c, defaultActivityLimit, maxActivityLimit)

	var (
		acts []domain.Activity
		err  error
	)
	ctx := c.Request.Context()
	switch {
	case projectID != nil:
		acts, err = h.store.ListActivitiesByProject(ctx, *projectID, limit)
	case userID != nil:
		acts, err = h.store.ListActivitiesByUser(ctx, *userID, limit)
	default:
		acts, err = h.store.ListActivities(ctx, limit)
	}
	if err != nil {
		storeError(c, err, "activities")
		return
	}
	ok(c, http.StatusOK, acts)
}

// Dashboard godoc
// @ID          dashboard
// @Summary     Studio totals
// @Description Project, message and team counts with the 10 most recent activities, optionally for one user.
// @Tags        Analytics
// @Produce     json
// @Param       userId  query     int  false  "User scope"
// @Success     200     {object}  services.Dashboard
// @Failure     400     {object}  handlers.ErrorResponse
// @Router      /analytics/dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	userID, valid := queryID(c, "userId")
	if !valid {
		return
	}
	d, err := h.store.Dashboard(c.Request.Context(), userID)
	if err != nil {
		storeError(c, err, "dashboard")
		return
	}
	ok(c, http.StatusOK, d)
}

// ProjectProgress godoc
// @ID          projectProgress
// @Summary     Project progress
// @Tags        Analytics
// @Produce     json
// @Param       projectId  query     int  true  "Project ID"
// @Success     200        {object}  services.ProjectProgress
// @Failure     400        {object}  handlers.ErrorResponse  "Missing projectId"
// @Failure     404        {object}  handlers.ErrorResponse
// @Router      /analytics/project-progress [get]
func (h *Handlers) ProjectProgress(c *gin.Context) {
	projectID, valid := queryID(c, "projectId")
	if !valid {
		return
	}
	if projectID == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "projectId is required")
		return
	}
	pp, err := h.store.ProjectProgress(c.Request.Context(), *projectID)
	if err != nil {
		storeError(c, err, "project")
		return
	}
	ok(c, http.StatusOK, pp)
}

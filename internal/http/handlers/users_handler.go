// User and authentication handlers.
//
//   - POST /auth/register   create an account
//   - POST /auth/login      check credentials, mark the user online
//   - POST /auth/logout     mark the user offline
//   - GET  /users           list accounts
//   - GET  /users/{id}      fetch one account
//   - PUT  /users/{id}      patch an account
//
// Password hashes never leave the store: domain.User hides them from JSON.

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

// UserResponse wraps a user for the auth endpoints.
type UserResponse struct {
	User *domain.User `json:"user"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// LogoutRequest names the user signing out. An absent id is accepted.
type LogoutRequest struct {
	UserID *int64 `json:"userId" example:"1"`
}

// Register godoc
// @ID          register
// @Summary     Register a user
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      domain.NewUser  true  "Account"
// @Success     201   {object}  handlers.UserResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid user data"
// @Failure     409   {object}  handlers.ErrorResponse  "Username or email taken"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var in domain.NewUser
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.store.CreateUser(c.Request.Context(), in)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	ok(c, http.StatusCreated, UserResponse{User: u})
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.UserResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.store.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	ok(c, http.StatusOK, UserResponse{User: u})
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LogoutRequest  false  "User"
// @Success     200   {object}  handlers.SuccessResponse
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.UserID != nil {
		err := h.store.Logout(c.Request.Context(), *req.UserID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			storeError(c, err, "user")
			return
		}
	}
	success(c)
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Tags        Users
// @Produce     json
// @Success     200  {array}   domain.User
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		storeError(c, err, "users")
		return
	}
	ok(c, http.StatusOK, users)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id   path      int  true  "User ID"
// @Success     200  {object}  domain.User
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	u, err := h.store.GetUser(c.Request.Context(), id)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Patch a user
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       id    path      int               true  "User ID"
// @Param       body  body      domain.UserPatch  true  "Fields to change"
// @Success     200   {object}  domain.User
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var patch domain.UserPatch
	if !bindJSON(c, &patch) {
		return
	}
	u, err := h.store.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		storeError(c, err, "user")
		return
	}
	ok(c, http.StatusOK, u)
}

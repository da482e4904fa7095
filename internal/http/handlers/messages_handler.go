package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/http/middleware"
	"github.com/tbourn/wolfoman-studio/internal/services"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages
// @Description Newest first. projectId takes precedence over userId; with neither, all messages are listed.
// @Tags        Messages
// @Produce     json
// @Param       projectId  query     int  false  "Project filter"
// @Param       userId     query     int  false  "Author filter"
// @Param       limit      query     int  false  "Max results (default 50)"
// @Success     200        {array}   domain.Message
// @Failure     400        {object}  handlers.ErrorResponse
// @Router      /messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	projectID, valid := queryID(c, "projectId")
	if !valid {
		return
	}
	userID, valid := queryID(c, "userId")
	if !valid {
		return
	}
	limit := queryLimit(c, defaultMessageLimit, maxMessageLimit)

	var (
		msgs []domain.Message
		err  error
	)
	ctx := c.Request.Context()
	switch {
	case projectID != nil:
		msgs, err = h.store.ListMessagesByProject(ctx, *projectID, limit)
	case userID != nil:
		msgs, err = h.store.ListMessagesByUser(ctx, *userID, limit)
	default:
		msgs, err = h.store.ListMessages(ctx, limit)
	}
	if err != nil {
		storeError(c, err, "messages")
		return
	}
	ok(c, http.StatusOK, msgs)
}

// CreateMessage godoc
// @ID          createMessage
// @Summary     Post a message
// @Description Persists a chat message. With an Idempotency-Key header a retry
// @Description within the TTL returns the original message with Idempotency-Replayed: true.
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header    string             false  "Client-supplied idempotency key"
// @Param       body             body      domain.NewMessage  true   "Message"
// @Success     201              {object}  domain.Message
// @Success     200              {object}  domain.Message     "Replayed"
// @Header      200              {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400              {object}  handlers.ErrorResponse
// @Router      /messages [post]
func (h *Handlers) CreateMessage(c *gin.Context) {
	ctx := c.Request.Context()
	key, _ := middleware.GetIdempotencyKey(c)
	scope := middleware.Scope(c)

	if key != "" && middleware.IsReplay(c) {
		prev, err := h.store.ReplayMessage(ctx, scope, key)
		switch {
		case err == nil:
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, prev)
			return
		case !errors.Is(err, services.ErrNotFound):
			storeError(c, err, "message")
			return
		}
	}

	var in domain.NewMessage
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.store.CreateMessage(ctx, in)
	if err != nil {
		storeError(c, err, "message")
		return
	}
	if key != "" {
		if err := h.store.RecordIdempotency(ctx, scope, key, m.ID, http.StatusCreated, h.idemTTL); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusCreated, m)
}

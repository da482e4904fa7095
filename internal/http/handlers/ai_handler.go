// AI endpoints.
//
// /ai/chat and /ai/generate-code always answer: the first falls back to
// local replies, the second renders a local template. /chat and
// /generate-code proxy to the provider and surface its failures as 502.

package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/utils"
)

const defaultCodeLanguage = "javascript"

var codeSuggestions = []string{
	"Consider adding error handling",
	"Add unit tests for better coverage",
	"Optimize for performance",
}

// AssistChatRequest is the body of /ai/chat. When Context carries a userId
// the exchange is persisted.
type AssistChatRequest struct {
	Message   string         `json:"message"   binding:"required" example:"مرحبا"`
	Context   map[string]any `json:"context"   swaggertype:"object"`
	ProjectID *int64         `json:"projectId" binding:"omitempty,min=1" example:"2"`
}

// ChatRequest is the body of /chat.
type ChatRequest struct {
	Message string `json:"message" example:"كيف أكتب API؟"`
	Model   string `json:"model"   example:"gpt-4"`
}

// ChatResponse carries an assistant reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// CodeRequest is the body of /generate-code and /ai/generate-code.
type CodeRequest struct {
	Prompt   string `json:"prompt"   example:"REST API for todos"`
	Language string `json:"language" example:"typescript"`
	Model    string `json:"model"    example:"mistral"`
}

// CodeResponse carries generated code.
type CodeResponse struct {
	Code string `json:"code"`
}

// AssistCodeResponse is the richer answer of /ai/generate-code.
type AssistCodeResponse struct {
	Code        string   `json:"code"`
	Explanation string   `json:"explanation"`
	Suggestions []string `json:"suggestions"`
}

// AIStatusResponse reports provider availability.
type AIStatusResponse struct {
	Configured      bool     `json:"configured"`
	AvailableModels []string `json:"availableModels"`
}

// AssistChat godoc
// @ID          assistChat
// @Summary     Chat with the assistant
// @Description Always answers, falling back to local replies. With context.userId the user and AI messages are stored.
// @Tags        AI
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.AssistChatRequest  true  "Message"
// @Success     200   {object}  handlers.ChatResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /ai/chat [post]
func (h *Handlers) AssistChat(c *gin.Context) {
	var req AssistChatRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	reply, label := h.ai.Reply(ctx, req.Message, "")

	if uid, found := contextUserID(req.Context); found {
		_, err := h.store.CreateMessage(ctx, domain.NewMessage{
			Content:   req.Message,
			Type:      domain.MessageUser,
			UserID:    &uid,
			ProjectID: req.ProjectID,
			Metadata:  datatypes.JSONMap(req.Context),
		})
		if err != nil {
			storeError(c, err, "message")
			return
		}
		_, err = h.store.CreateMessage(ctx, domain.NewMessage{
			Content:   reply,
			Type:      domain.MessageAI,
			ProjectID: req.ProjectID,
			Metadata:  datatypes.JSONMap{"aiModel": label},
		})
		if err != nil {
			storeError(c, err, "message")
			return
		}
	}
	ok(c, http.StatusOK, ChatResponse{Response: reply})
}

// AssistCode godoc
// @ID          assistCode
// @Summary     Sketch code locally
// @Description Renders a template for the language (javascript by default) with an explanation and suggestions.
// @Tags        AI
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CodeRequest  true  "Prompt"
// @Success     200   {object}  handlers.AssistCodeResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /ai/generate-code [post]
func (h *Handlers) AssistCode(c *gin.Context) {
	var req CodeRequest
	if !bindJSON(c, &req) {
		return
	}
	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = defaultCodeLanguage
	}
	ok(c, http.StatusOK, AssistCodeResponse{
		Code:        h.ai.MockCode(req.Prompt, lang),
		Explanation: fmt.Sprintf("Generated %s code based on the prompt: %q", lang, req.Prompt),
		Suggestions: append([]string(nil), codeSuggestions...),
	})
}

// Chat godoc
// @ID          chat
// @Summary     Chat through the provider
// @Description Without a provider credential the reply comes from the local fallback.
// @Tags        AI
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ChatRequest  true  "Message and optional model selector"
// @Success     200   {object}  handlers.ChatResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     502   {object}  handlers.ErrorResponse  "Provider failure"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}
	if !h.ai.IsConfigured() {
		ok(c, http.StatusOK, ChatResponse{Response: h.ai.FallbackReply(req.Message)})
		return
	}
	out, err := h.ai.GenerateChatResponse(c.Request.Context(), req.Message, req.Model)
	if err != nil {
		storeError(c, err, "response")
		return
	}
	ok(c, http.StatusOK, ChatResponse{Response: out})
}

// GenerateCode godoc
// @ID          generateCode
// @Summary     Generate code through the provider
// @Description Without a provider credential a local template is returned.
// @Tags        AI
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CodeRequest  true  "Prompt, language and optional model selector"
// @Success     200   {object}  handlers.CodeResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     502   {object}  handlers.ErrorResponse  "Provider failure"
// @Router      /generate-code [post]
func (h *Handlers) GenerateCode(c *gin.Context) {
	var req CodeRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" || strings.TrimSpace(req.Language) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "prompt and language are required")
		return
	}
	if !h.ai.IsConfigured() {
		ok(c, http.StatusOK, CodeResponse{Code: h.ai.MockCode(req.Prompt, req.Language)})
		return
	}
	out, err := h.ai.GenerateCode(c.Request.Context(), req.Prompt, req.Language, req.Model)
	if err != nil {
		storeError(c, err, "code")
		return
	}
	ok(c, http.StatusOK, CodeResponse{Code: out})
}

// AIStatus godoc
// @ID          aiStatus
// @Summary     Provider status
// @Tags        AI
// @Produce     json
// @Success     200  {object}  handlers.AIStatusResponse
// @Router      /ai-status [get]
func (h *Handlers) AIStatus(c *gin.Context) {
	ok(c, http.StatusOK, AIStatusResponse{
		Configured:      h.ai.IsConfigured(),
		AvailableModels: h.ai.AvailableModels(),
	})
}

// contextUserID extracts a positive userId from a free-form context map.
// Numbers and numeric strings are accepted.
func contextUserID(ctx map[string]any) (int64, bool) {
	switch v := ctx["userId"].(type) {
	case float64:
		if v >= 1 && v == float64(int64(v)) {
			return int64(v), true
		}
	case json.Number:
		return utils.ParseID(v.String())
	case string:
		return utils.ParseID(v)
	}
	return 0, false
}

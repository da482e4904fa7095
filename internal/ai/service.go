// Package ai generates assistant text. A Service proxies chat and code
// requests to an OpenAI-compatible provider; Fallback produces canned Arabic
// replies and code templates locally; Responder combines the two so callers
// always get an answer.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/wolfoman-studio/internal/config"
)

// Model selectors accepted from clients and the provider models they map to.
const (
	SelectorGPT4    = "gpt-4"
	SelectorMistral = "mistral"

	ModelGPT4o   = "gpt-4o"
	ModelMistral = "Mistral-large"
)

const chatSystemPrompt = `أنت مساعد ذكي متطور من WolfOmanAI. تتحدث باللغة العربية وتساعد المطورين في البرمجة والتطوير. كن مفيداً ومبدعاً في إجاباتك. استخدم العبارات الشاعرية أحياناً مثل "كل سطر كود هو قطرة من روحك تتدفق في العالم الرقمي".`

// codeSystemPrompt and codeUserPrompt frame a code generation request.
func codeSystemPrompt(language string) string {
	return fmt.Sprintf("أنت مطور خبير متخصص في %s. قم بإنشاء كود عالي الجودة، نظيف، ومع تعليقات باللغة العربية. استخدم أفضل الممارسات والمعايير الحديثة.", language)
}

func codeUserPrompt(prompt, language string) string {
	return fmt.Sprintf("أنشئ كود %s للمتطلب التالي: %s", language, prompt)
}

var availableModels = []string{"gpt-4o", "gpt-4o-mini", "mistral-ai/Codestral-2501"}

// Service proxies generation requests to the configured provider.
type Service struct {
	provider  Provider
	chatModel string
	codeModel string
}

// New builds a Service from configuration. Without a token the service
// reports itself unconfigured and every call returns ErrNotConfigured.
func New(cfg config.AIConfig) *Service {
	var p Provider
	if strings.TrimSpace(cfg.Token) != "" {
		p = NewOpenAIProvider(cfg.Token, cfg.Endpoint, cfg.Timeout, Sampling{
			Temperature: float32(cfg.Temperature),
			TopP:        float32(cfg.TopP),
			MaxTokens:   cfg.MaxTokens,
		})
	}
	return NewWithProvider(p, cfg.ChatModel, cfg.CodeModel)
}

// NewWithProvider wires an arbitrary provider; a nil provider means
// unconfigured. Empty default selectors fall back to gpt-4 for chat and
// mistral for code.
func NewWithProvider(p Provider, chatModel, codeModel string) *Service {
	if chatModel == "" {
		chatModel = SelectorGPT4
	}
	if codeModel == "" {
		codeModel = SelectorMistral
	}
	return &Service{provider: p, chatModel: chatModel, codeModel: codeModel}
}

// IsConfigured reports whether a provider credential is present.
func (s *Service) IsConfigured() bool { return s != nil && s.provider != nil }

// AvailableModels lists the provider models clients may ask for. It is empty
// when the service is not configured.
func (s *Service) AvailableModels() []string {
	if !s.IsConfigured() {
		return []string{}
	}
	return append([]string(nil), availableModels...)
}

// ResolveModel maps a client selector onto a provider model.
//
// Behavior:
//   - An empty selector resolves the chat default.
//   - "gpt-4" and "mistral" match case-insensitively and map to their
//     provider models.
//   - Any other selector is passed to the provider unchanged.
func (s *Service) ResolveModel(selector string) string {
	return s.resolve(selector, s.chatModel)
}

// resolve applies ResolveModel's mapping with def as the empty-selector
// default.
func (s *Service) resolve(selector, def string) string {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = def
	}
	switch strings.ToLower(selector) {
	case SelectorGPT4:
		return ModelGPT4o
	case SelectorMistral:
		return ModelMistral
	default:
		return selector
	}
}

// GenerateChatResponse answers text in the assistant persona.
func (s *Service) GenerateChatResponse(ctx context.Context, text, model string) (string, error) {
	return s.complete(ctx, "GenerateChatResponse", s.resolve(model, s.chatModel), chatSystemPrompt, text)
}

// GenerateCode asks the provider for code in language satisfying prompt.
func (s *Service) GenerateCode(ctx context.Context, prompt, language, model string) (string, error) {
	return s.complete(ctx, "GenerateCode", s.resolve(model, s.codeModel),
		codeSystemPrompt(language), codeUserPrompt(prompt, language))
}

// complete runs one traced provider call. Non-provider errors are wrapped
// in *ProviderError so callers only need one check.
func (s *Service) complete(ctx context.Context, op, model, system, prompt string) (string, error) {
	ctx, span := otel.Tracer("ai/Service").Start(ctx, op,
		trace.WithAttributes(attribute.String("ai.model", model)),
	)
	defer span.End()

	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}
	out, err := s.provider.Complete(ctx, model, system, prompt)
	if err != nil {
		providerErrors.WithLabelValues(model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		log.Warn().Err(err).Str("model", model).Msg("ai provider call failed")
		if !IsProviderError(err) {
			err = &ProviderError{Model: model, Err: err}
		}
		return "", err
	}
	return out, nil
}

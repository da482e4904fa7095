// Package ai – Responder
//
// Combines the provider proxy with the local fallback.
package ai

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Responder answers chat text with the provider when one is configured and
// falls back to canned replies otherwise or when the provider fails.
type Responder struct {
	svc      *Service
	fallback *Fallback
}

// NewResponder combines svc and fb. A nil svc always falls back.
func NewResponder(svc *Service, fb *Fallback) *Responder {
	if fb == nil {
		fb = NewFallback(0)
	}
	return &Responder{svc: svc, fallback: fb}
}

// Reply returns the answer to text and the label of the model that
// produced it.
//
// Behavior:
//   - With a configured provider, the provider is tried first and the
//     resolved model name is returned on success.
//   - Any failure, or no provider at all, yields a canned reply labelled
//     FallbackModel.
//   - Never returns an error; chat always gets an answer.
func (r *Responder) Reply(ctx context.Context, text, model string) (string, string) {
	if r.svc.IsConfigured() {
		out, err := r.svc.GenerateChatResponse(ctx, text, model)
		if err == nil {
			replies.WithLabelValues(sourceProvider).Inc()
			return out, r.svc.ResolveModel(model)
		}
		if !IsProviderError(err) {
			log.Error().Err(err).Msg("unexpected ai error, using fallback")
		}
	}
	replies.WithLabelValues(sourceFallback).Inc()
	return r.fallback.Respond(text), FallbackModel
}

// Fallback exposes the local generator for endpoints that always answer
// locally.
func (r *Responder) Fallback() *Fallback { return r.fallback }

// Service exposes the provider proxy.
func (r *Responder) Service() *Service { return r.svc }

// IsConfigured reports whether a provider is available.
func (r *Responder) IsConfigured() bool { return r.svc.IsConfigured() }

// AvailableModels lists provider models, empty when unconfigured.
func (r *Responder) AvailableModels() []string { return r.svc.AvailableModels() }

// GenerateChatResponse calls the provider without falling back.
func (r *Responder) GenerateChatResponse(ctx context.Context, text, model string) (string, error) {
	if !r.svc.IsConfigured() {
		return "", ErrNotConfigured
	}
	return r.svc.GenerateChatResponse(ctx, text, model)
}

// GenerateCode calls the provider without falling back.
func (r *Responder) GenerateCode(ctx context.Context, prompt, language, model string) (string, error) {
	if !r.svc.IsConfigured() {
		return "", ErrNotConfigured
	}
	return r.svc.GenerateCode(ctx, prompt, language, model)
}

// FallbackReply answers text locally.
func (r *Responder) FallbackReply(text string) string { return r.fallback.Respond(text) }

// MockCode renders a local code template.
func (r *Responder) MockCode(prompt, language string) string {
	return MockCode(prompt, language)
}

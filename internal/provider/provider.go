// Package provider implements the uniform backend abstraction over
// heterogeneous LLM services: a local always-on daemon (Ollama) and a
// metered cloud API with free and paid tiers (OpenRouter).
package provider

import (
	"context"
	"strconv"

	"github.com/iksnae/enai/internal"
)

// ModelInfo describes one model offered by a backend
type ModelInfo struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ContextLength   int    `json:"context_length"` // 0 = unknown
	Description     string `json:"description,omitempty"`
	PromptPrice     string `json:"prompt_price,omitempty"`
	CompletionPrice string `json:"completion_price,omitempty"`
	Free            bool   `json:"free"`
}

// ChatRequest is one chat completion call
type ChatRequest struct {
	Messages    []internal.APIMessage
	Model       string // empty = provider default
	Temperature float64
	MaxTokens   int // 0 = provider default
}

// Usage carries token accounting returned by a backend
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the result of one chat completion
type ChatResponse struct {
	Content      string
	Model        string // model actually used
	Usage        *Usage
	FinishReason string
}

// Provider is the capability contract every backend satisfies
type Provider interface {
	// Name returns the stable backend identifier
	Name() string

	// IsAvailable performs a lightweight, short-timeout reachability
	// probe. It never returns an error: any failure collapses to false.
	IsAvailable() bool

	// ListModels enumerates the backend's models. Implementations may
	// serve a cached or fallback catalog instead of failing; callers
	// must tolerate an empty result. forceRefresh bypasses any cache.
	ListModels(forceRefresh bool) ([]ModelInfo, error)

	// ChatCompletion performs one completion. Failures surface as a
	// *RequestError; they are never swallowed.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// DefaultModel returns the model used when none is requested,
	// empty when the backend has no default.
	DefaultModel() string

	// ValidateConfig is a pure local configuration check with no
	// network calls.
	ValidateConfig() bool
}

// freeFromPricing classifies a model as free when both prices resolve to
// exactly zero. Unparseable prices classify as paid.
func freeFromPricing(prompt, completion string) bool {
	p, err := strconv.ParseFloat(orZero(prompt), 64)
	if err != nil {
		return false
	}
	c, err := strconv.ParseFloat(orZero(completion), 64)
	if err != nil {
		return false
	}
	return p == 0 && c == 0
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

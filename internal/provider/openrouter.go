package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iksnae/enai/internal"
)

const (
	openRouterName    = "openrouter"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// knownFreeModels is the offline fallback catalog served when the remote
// model list is unreachable, so the UI stays usable.
var knownFreeModels = []string{
	"meta-llama/llama-3.2-3b-instruct:free",
	"meta-llama/llama-3.2-1b-instruct:free",
	"google/gemma-2-9b-it:free",
	"microsoft/phi-3-mini-128k-instruct:free",
	"nousresearch/hermes-3-llama-3.1-405b:free",
}

// OpenRouterProvider adapts the OpenRouter metered API to the Provider
// contract. Models are classified free when both prompt and completion
// pricing resolve to exactly zero.
type OpenRouterProvider struct {
	baseURL      string
	apiKey       string
	preferFree   bool
	defaultModel string
	httpClient   *http.Client

	cache    *CatalogCache // optional persistent cache
	cacheTTL time.Duration

	memModels    []ModelInfo
	memFetchedAt time.Time
}

// NewOpenRouterProvider builds an OpenRouter provider. cache may be nil
// to disable the persistent catalog cache.
func NewOpenRouterProvider(apiKey string, settings *internal.Settings, cache *CatalogCache) *OpenRouterProvider {
	ttl := time.Duration(settings.ModelCacheTTL) * time.Second
	return &OpenRouterProvider{
		baseURL:      openRouterBaseURL,
		apiKey:       apiKey,
		preferFree:   settings.PreferFreeModels,
		defaultModel: settings.DefaultModel,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		cache:        cache,
		cacheTTL:     ttl,
	}
}

// Name returns the backend identifier
func (p *OpenRouterProvider) Name() string {
	return openRouterName
}

func (p *OpenRouterProvider) headers(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// IsAvailable probes the models endpoint; any failure collapses to false
func (p *OpenRouterProvider) IsAvailable() bool {
	if p.apiKey == "" {
		return false
	}
	req, err := http.NewRequest(http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	p.headers(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the remote catalog. Freshly fetched catalogs go
// through both the in-memory and the persistent cache; when the remote
// fetch fails the known-free fallback list is served instead of an error.
func (p *OpenRouterProvider) ListModels(forceRefresh bool) ([]ModelInfo, error) {
	if !forceRefresh {
		if len(p.memModels) > 0 && time.Since(p.memFetchedAt) < p.cacheTTL {
			return p.memModels, nil
		}
		if p.cache != nil {
			if models, ok := p.cache.Load(openRouterName, p.cacheTTL); ok {
				p.memModels = models
				p.memFetchedAt = time.Now()
				return models, nil
			}
		}
	}

	models, err := p.fetchModels()
	if err != nil {
		internal.LogWarn("OpenRouter catalog fetch failed, serving fallback list: %v", err)
		return p.fallbackModels(), nil
	}

	p.memModels = models
	p.memFetchedAt = time.Now()
	if p.cache != nil {
		if err := p.cache.Store(openRouterName, models); err != nil {
			internal.LogWarn("Failed to persist model catalog: %v", err)
		}
	}
	return models, nil
}

func (p *OpenRouterProvider) fetchModels() ([]ModelInfo, error) {
	req, err := http.NewRequest(http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "models", Err: err}
	}
	p.headers(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "models", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{
			Provider: openRouterName, Op: "models", Status: resp.StatusCode,
			Err: fmt.Errorf("%s", strings.TrimSpace(string(raw))),
		}
	}

	var result struct {
		Data []struct {
			ID            string `json:"id"`
			Name          string `json:"name"`
			ContextLength int    `json:"context_length"`
			Description   string `json:"description"`
			Pricing       struct {
				Prompt     string `json:"prompt"`
				Completion string `json:"completion"`
			} `json:"pricing"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "models", Err: err}
	}

	models := make([]ModelInfo, 0, len(result.Data))
	for _, m := range result.Data {
		if m.ID == "" {
			continue
		}
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, ModelInfo{
			ID:              m.ID,
			Name:            name,
			ContextLength:   m.ContextLength,
			Description:     m.Description,
			PromptPrice:     m.Pricing.Prompt,
			CompletionPrice: m.Pricing.Completion,
			Free:            freeFromPricing(m.Pricing.Prompt, m.Pricing.Completion),
		})
	}
	return models, nil
}

func (p *OpenRouterProvider) fallbackModels() []ModelInfo {
	models := make([]ModelInfo, 0, len(knownFreeModels))
	for _, id := range knownFreeModels {
		models = append(models, ModelInfo{
			ID:              id,
			Name:            id,
			ContextLength:   8192,
			PromptPrice:     "0",
			CompletionPrice: "0",
			Free:            true,
		})
	}
	return models
}

// SelectBestModel picks a model deterministically: the free model with
// the largest context window when free models are preferred, otherwise
// the largest-context model overall. Empty when no models are known.
func (p *OpenRouterProvider) SelectBestModel(preferFree bool) string {
	models, err := p.ListModels(false)
	if err != nil || len(models) == 0 {
		return ""
	}
	if preferFree {
		if best := largestContext(models, true); best != "" {
			return best
		}
	}
	return largestContext(models, false)
}

func largestContext(models []ModelInfo, freeOnly bool) string {
	bestID := ""
	bestLen := -1
	for _, m := range models {
		if freeOnly && !m.Free {
			continue
		}
		if m.ContextLength > bestLen {
			bestLen = m.ContextLength
			bestID = m.ID
		}
	}
	return bestID
}

type openRouterChatRequest struct {
	Model       string                `json:"model"`
	Messages    []internal.APIMessage `json:"messages"`
	Temperature float64               `json:"temperature,omitempty"`
	MaxTokens   int                   `json:"max_tokens,omitempty"`
}

type openRouterChatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// ChatCompletion executes one completion against OpenRouter
func (p *OpenRouterProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}
	if model == "" {
		return nil, &RequestError{
			Provider: openRouterName, Op: "chat",
			Err: fmt.Errorf("no model available"),
		}
	}

	payload := openRouterChatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "chat", Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "chat", Err: err}
	}
	p.headers(httpReq)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "chat", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{
			Provider: openRouterName, Op: "chat", Status: resp.StatusCode,
			Err: fmt.Errorf("%s", strings.TrimSpace(string(raw))),
		}
	}

	var result openRouterChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RequestError{Provider: openRouterName, Op: "chat", Err: err}
	}
	if len(result.Choices) == 0 {
		return nil, &RequestError{
			Provider: openRouterName, Op: "chat",
			Err: fmt.Errorf("response contained no choices"),
		}
	}

	usedModel := result.Model
	if usedModel == "" {
		usedModel = model
	}
	return &ChatResponse{
		Content:      result.Choices[0].Message.Content,
		Model:        usedModel,
		Usage:        result.Usage,
		FinishReason: result.Choices[0].FinishReason,
	}, nil
}

// DefaultModel returns the configured default, falling back to the best
// free (or overall) model the catalog offers
func (p *OpenRouterProvider) DefaultModel() string {
	if p.defaultModel != "" {
		return p.defaultModel
	}
	return p.SelectBestModel(p.preferFree)
}

// ValidateConfig checks that an API key is present; no network call
func (p *OpenRouterProvider) ValidateConfig() bool {
	return strings.TrimSpace(p.apiKey) != ""
}

// SetBaseURL overrides the API base URL; used by tests
func (p *OpenRouterProvider) SetBaseURL(url string) {
	p.baseURL = strings.TrimRight(url, "/")
}

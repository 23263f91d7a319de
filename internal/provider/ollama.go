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
)

const (
	ollamaName         = "ollama"
	ollamaProbeTimeout = 3 * time.Second
)

// OllamaProvider adapts a local Ollama daemon to the Provider contract.
// Everything Ollama hosts is classified free: no metering exists for
// locally-run models.
type OllamaProvider struct {
	endpoint     string
	defaultModel string
	httpClient   *http.Client
	probeClient  *http.Client
}

// NewOllamaProvider builds an Ollama provider for the given endpoint
func NewOllamaProvider(endpoint, defaultModel string) *OllamaProvider {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	return &OllamaProvider{
		endpoint:     endpoint,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		probeClient:  &http.Client{Timeout: ollamaProbeTimeout},
	}
}

// Name returns the backend identifier
func (p *OllamaProvider) Name() string {
	return ollamaName
}

// IsAvailable probes the daemon's version endpoint with a short timeout
func (p *OllamaProvider) IsAvailable() bool {
	resp, err := p.probeClient.Get(p.endpoint + "/api/version")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Version returns the daemon version, empty when unreachable
func (p *OllamaProvider) Version() string {
	resp, err := p.probeClient.Get(p.endpoint + "/api/version")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var result struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ""
	}
	return result.Version
}

// ListModels returns the locally installed models. Ollama's catalog is
// already local, so there is nothing to cache and forceRefresh is moot.
func (p *OllamaProvider) ListModels(forceRefresh bool) ([]ModelInfo, error) {
	resp, err := p.httpClient.Get(p.endpoint + "/api/tags")
	if err != nil {
		return nil, &RequestError{Provider: ollamaName, Op: "models", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{
			Provider: ollamaName, Op: "models", Status: resp.StatusCode,
			Err: fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RequestError{Provider: ollamaName, Op: "models", Err: err}
	}

	models := make([]ModelInfo, 0, len(result.Models))
	for _, m := range result.Models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		models = append(models, ModelInfo{
			ID:              name,
			Name:            name,
			Description:     fmt.Sprintf("Size: %.2f GB", float64(m.Size)/(1<<30)),
			PromptPrice:     "0",
			CompletionPrice: "0",
			Free:            true,
		})
	}
	return models, nil
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// ChatCompletion executes one non-streaming chat request
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	payload := ollamaChatRequest{
		Model:   model,
		Stream:  false,
		Options: ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}
	for _, msg := range req.Messages {
		payload.Messages = append(payload.Messages, ollamaChatMessage(msg))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{Provider: ollamaName, Op: "chat", Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Provider: ollamaName, Op: "chat", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Provider: ollamaName, Op: "chat", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &RequestError{
			Provider: ollamaName, Op: "chat", Status: resp.StatusCode,
			Err: fmt.Errorf("%s", strings.TrimSpace(string(raw))),
		}
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &RequestError{Provider: ollamaName, Op: "chat", Err: err}
	}

	finish := result.DoneReason
	if finish == "" {
		finish = "stop"
	}
	return &ChatResponse{
		Content: result.Message.Content,
		Model:   model,
		Usage: &Usage{
			PromptTokens:     result.PromptEvalCount,
			CompletionTokens: result.EvalCount,
			TotalTokens:      result.PromptEvalCount + result.EvalCount,
		},
		FinishReason: finish,
	}, nil
}

// DefaultModel returns the configured default model
func (p *OllamaProvider) DefaultModel() string {
	return p.defaultModel
}

// ValidateConfig checks the endpoint shape without touching the network
func (p *OllamaProvider) ValidateConfig() bool {
	return strings.HasPrefix(p.endpoint, "http://") ||
		strings.HasPrefix(p.endpoint, "https://")
}

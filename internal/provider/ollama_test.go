package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iksnae/enai/internal"
)

func newOllamaTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"version": "0.5.4"})
	})
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"models": []map[string]interface{}{
				{"name": "qwen2.5-coder:3b", "size": int64(2 << 30)},
				{"name": "llama3.2:1b", "size": int64(1 << 30)},
				{"name": "", "size": int64(0)},
			},
		})
	})
	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Stream {
			t.Error("Chat request should disable streaming")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"message":           map[string]string{"content": "use ls -la"},
			"done_reason":       "",
			"prompt_eval_count": 12,
			"eval_count":        8,
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestOllamaIsAvailable(t *testing.T) {
	server := newOllamaTestServer(t)
	p := NewOllamaProvider(server.URL, "qwen2.5-coder:3b")
	if !p.IsAvailable() {
		t.Error("Provider should be available against a live server")
	}
	if got := p.Version(); got != "0.5.4" {
		t.Errorf("Version = %q, want 0.5.4", got)
	}

	dead := NewOllamaProvider("http://127.0.0.1:1", "m")
	if dead.IsAvailable() {
		t.Error("Provider should be unavailable when nothing listens")
	}
}

func TestOllamaListModels(t *testing.T) {
	server := newOllamaTestServer(t)
	p := NewOllamaProvider(server.URL, "qwen2.5-coder:3b")

	models, err := p.ListModels(false)
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("Expected 2 models (empty name skipped), got %d", len(models))
	}
	for _, m := range models {
		if !m.Free {
			t.Errorf("Local model %s should be free", m.ID)
		}
	}
	if models[0].ID != "qwen2.5-coder:3b" {
		t.Errorf("First model = %q", models[0].ID)
	}
}

func TestOllamaChatCompletion(t *testing.T) {
	server := newOllamaTestServer(t)
	p := NewOllamaProvider(server.URL, "qwen2.5-coder:3b")

	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages: []internal.APIMessage{
			{Role: "system", Content: "be terse"},
			{Role: "user", Content: "list files"},
		},
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if resp.Content != "use ls -la" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "qwen2.5-coder:3b" {
		t.Errorf("Model should fall back to the default: %q", resp.Model)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("Empty done_reason should map to stop, got %q", resp.FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 20 {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}
}

func TestOllamaChatCompletionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, "m")
	_, err := p.ChatCompletion(context.Background(), ChatRequest{
		Messages: []internal.APIMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("Expected an error from a 500 response")
	}
	reqErr, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("Expected *RequestError, got %T", err)
	}
	if reqErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", reqErr.Status)
	}
}

func TestOllamaValidateConfig(t *testing.T) {
	if !NewOllamaProvider("http://localhost:11434", "m").ValidateConfig() {
		t.Error("http endpoint should validate")
	}
	if !NewOllamaProvider("https://ollama.example.com/", "m").ValidateConfig() {
		t.Error("https endpoint should validate")
	}
	if NewOllamaProvider("localhost:11434", "m").ValidateConfig() {
		t.Error("Schemeless endpoint should not validate")
	}
}

package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/iksnae/enai/internal"
)

func testSettings() *internal.Settings {
	return &internal.Settings{
		PreferFreeModels: true,
		ModelCacheTTL:    3600,
	}
}

func catalogJSON() map[string]interface{} {
	return map[string]interface{}{
		"data": []map[string]interface{}{
			{
				"id": "vendor/free-small", "name": "Free Small",
				"context_length": 8192,
				"pricing":        map[string]string{"prompt": "0", "completion": "0"},
			},
			{
				"id": "vendor/free-big", "name": "Free Big",
				"context_length": 131072,
				"pricing":        map[string]string{"prompt": "0", "completion": "0"},
			},
			{
				"id": "vendor/paid-huge", "name": "Paid Huge",
				"context_length": 200000,
				"pricing":        map[string]string{"prompt": "0.000003", "completion": "0.000015"},
			},
		},
	}
}

func newOpenRouterTestProvider(t *testing.T, handler http.Handler) *OpenRouterProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	p := NewOpenRouterProvider("sk-or-test", testSettings(), nil)
	p.SetBaseURL(server.URL)
	return p
}

func TestOpenRouterFreeClassification(t *testing.T) {
	p := newOpenRouterTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-or-test" {
			t.Error("Missing bearer token")
		}
		json.NewEncoder(w).Encode(catalogJSON())
	}))

	models, err := p.ListModels(false)
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("Expected 3 models, got %d", len(models))
	}
	free := map[string]bool{}
	for _, m := range models {
		free[m.ID] = m.Free
	}
	if !free["vendor/free-small"] || !free["vendor/free-big"] {
		t.Error("Zero-priced models should classify as free")
	}
	if free["vendor/paid-huge"] {
		t.Error("Priced model should classify as paid")
	}
}

func TestOpenRouterFallbackOnFetchFailure(t *testing.T) {
	p := newOpenRouterTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))

	models, err := p.ListModels(false)
	if err != nil {
		t.Fatalf("Fetch failure should not surface an error, got %v", err)
	}
	if len(models) != len(knownFreeModels) {
		t.Fatalf("Expected the %d known-free fallback models, got %d",
			len(knownFreeModels), len(models))
	}
	for _, m := range models {
		if !m.Free {
			t.Errorf("Fallback model %s should be free", m.ID)
		}
	}
}

func TestOpenRouterMemoryCache(t *testing.T) {
	var fetches int32
	p := newOpenRouterTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		json.NewEncoder(w).Encode(catalogJSON())
	}))

	if _, err := p.ListModels(false); err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if _, err := p.ListModels(false); err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("Second call should hit the in-memory cache, saw %d fetches", n)
	}

	if _, err := p.ListModels(true); err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if n := atomic.LoadInt32(&fetches); n != 2 {
		t.Errorf("forceRefresh should bypass the cache, saw %d fetches", n)
	}
}

func TestOpenRouterSelectBestModel(t *testing.T) {
	p := newOpenRouterTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(catalogJSON())
	}))

	if got := p.SelectBestModel(true); got != "vendor/free-big" {
		t.Errorf("SelectBestModel(preferFree) = %q, want vendor/free-big", got)
	}
	if got := p.SelectBestModel(false); got != "vendor/paid-huge" {
		t.Errorf("SelectBestModel(all) = %q, want vendor/paid-huge", got)
	}
}

func TestOpenRouterChatCompletion(t *testing.T) {
	p := newOpenRouterTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openRouterChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model != "vendor/free-big" {
			t.Errorf("Requested model = %q", req.Model)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "vendor/free-big",
			"choices": []map[string]interface{}{
				{
					"message":       map[string]string{"content": "hello there"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{
				"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15,
			},
		})
	}))

	resp, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model:    "vendor/free-big",
		Messages: []internal.APIMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if resp.Content != "hello there" || resp.FinishReason != "stop" {
		t.Errorf("Unexpected response: %+v", resp)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("Unexpected usage: %+v", resp.Usage)
	}
}

func TestOpenRouterChatCompletionNoChoices(t *testing.T) {
	p := newOpenRouterTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))

	_, err := p.ChatCompletion(context.Background(), ChatRequest{
		Model:    "vendor/free-big",
		Messages: []internal.APIMessage{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("Empty choices should be an error")
	}
	if _, ok := err.(*RequestError); !ok {
		t.Errorf("Expected *RequestError, got %T", err)
	}
}

func TestOpenRouterRequiresAPIKey(t *testing.T) {
	p := NewOpenRouterProvider("", testSettings(), nil)
	if p.IsAvailable() {
		t.Error("Provider without a key should never probe as available")
	}
	if p.ValidateConfig() {
		t.Error("Empty key should not validate")
	}
	if !NewOpenRouterProvider("sk-or-x", testSettings(), nil).ValidateConfig() {
		t.Error("Non-empty key should validate")
	}
}

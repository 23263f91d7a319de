package provider

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/enai/testutil"
)

func newTestCatalogCache(t *testing.T) *CatalogCache {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	cache, err := OpenCatalogCache(filepath.Join(dir, "models.db"))
	if err != nil {
		t.Fatalf("OpenCatalogCache failed: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func sampleModels() []ModelInfo {
	return []ModelInfo{
		{ID: "a/one", Name: "One", ContextLength: 8192,
			PromptPrice: "0", CompletionPrice: "0", Free: true},
		{ID: "b/two", Name: "Two", ContextLength: 32000,
			Description: "bigger", PromptPrice: "0.001", CompletionPrice: "0.002"},
	}
}

func TestCatalogStoreAndLoad(t *testing.T) {
	cache := newTestCatalogCache(t)
	if err := cache.Store("openrouter", sampleModels()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	models, ok := cache.Load("openrouter", time.Hour)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if len(models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(models))
	}
	// Insertion order must survive the round trip.
	if models[0].ID != "a/one" || models[1].ID != "b/two" {
		t.Errorf("Order not preserved: %s, %s", models[0].ID, models[1].ID)
	}
	if !models[0].Free || models[1].Free {
		t.Error("Free flags not preserved")
	}
	if models[1].Description != "bigger" || models[1].PromptPrice != "0.001" {
		t.Errorf("Fields not preserved: %+v", models[1])
	}
}

func TestCatalogLoadExpired(t *testing.T) {
	cache := newTestCatalogCache(t)
	if err := cache.Store("openrouter", sampleModels()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, ok := cache.Load("openrouter", 0); ok {
		t.Error("Zero max age should always miss")
	}
}

func TestCatalogLoadUnknownProvider(t *testing.T) {
	cache := newTestCatalogCache(t)
	if _, ok := cache.Load("nobody", time.Hour); ok {
		t.Error("Unknown provider should miss")
	}
}

func TestCatalogStoreReplaces(t *testing.T) {
	cache := newTestCatalogCache(t)
	if err := cache.Store("openrouter", sampleModels()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	replacement := []ModelInfo{{ID: "c/three", Name: "Three", Free: true}}
	if err := cache.Store("openrouter", replacement); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	models, ok := cache.Load("openrouter", time.Hour)
	if !ok {
		t.Fatal("Expected a cache hit")
	}
	if len(models) != 1 || models[0].ID != "c/three" {
		t.Errorf("Store should replace the catalog, got %+v", models)
	}
}

func TestCatalogInvalidate(t *testing.T) {
	cache := newTestCatalogCache(t)
	if err := cache.Store("openrouter", sampleModels()); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if err := cache.Invalidate("openrouter"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, ok := cache.Load("openrouter", time.Hour); ok {
		t.Error("Invalidate should drop the catalog")
	}
}

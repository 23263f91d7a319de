package provider

import (
	"path/filepath"

	"github.com/iksnae/enai/internal"
)

// detectionOrder is the fixed auto-detection priority when no provider
// is explicitly preferred: local daemon first, metered cloud second.
var detectionOrder = []string{ollamaName, openRouterName}

// Status describes one backend for read-only status queries
type Status struct {
	Exists       bool
	Available    bool
	ConfigValid  bool
	DefaultModel string
}

// Manager owns one instance of every known backend, keyed by name, and
// applies the deterministic selection policy: explicit preference wins
// or fails loudly, otherwise the first available backend in detection
// order serves.
type Manager struct {
	config    *internal.ConfigManager
	providers map[string]Provider
	cache     *CatalogCache
}

// NewManager builds the known backends from configuration. The catalog
// cache is best-effort: failure to open it only disables persistence.
func NewManager(config *internal.ConfigManager) *Manager {
	settings := config.Settings()

	var cache *CatalogCache
	cacheDir := config.Paths().CacheDir()
	if err := internal.EnsureDir(cacheDir); err == nil {
		opened, err := OpenCatalogCache(filepath.Join(cacheDir, "models.db"))
		if err != nil {
			internal.LogWarn("Model catalog cache disabled: %v", err)
		} else {
			cache = opened
		}
	}

	m := &Manager{
		config:    config,
		providers: make(map[string]Provider),
		cache:     cache,
	}
	m.providers[ollamaName] = NewOllamaProvider(
		settings.OllamaEndpoint, settings.OllamaDefaultModel)
	m.providers[openRouterName] = NewOpenRouterProvider(
		settings.OpenRouterAPIKey, settings, cache)
	return m
}

// Register replaces or adds a backend instance; used by tests to inject
// fakes
func (m *Manager) Register(p Provider) {
	m.providers[p.Name()] = p
}

// Close releases the catalog cache
func (m *Manager) Close() error {
	if m.cache != nil {
		return m.cache.Close()
	}
	return nil
}

// Get returns the named backend, nil when unknown
func (m *Manager) Get(name string) Provider {
	return m.providers[name]
}

// Names returns the known backend names in detection order
func (m *Manager) Names() []string {
	names := make([]string, 0, len(detectionOrder))
	for _, name := range detectionOrder {
		if _, ok := m.providers[name]; ok {
			names = append(names, name)
		}
	}
	for name := range m.providers {
		if !contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// AvailableProviders returns the names of backends whose probe succeeds
func (m *Manager) AvailableProviders() []string {
	var available []string
	for _, name := range m.Names() {
		if m.providers[name].IsAvailable() {
			available = append(available, name)
		}
	}
	return available
}

// GetCurrent resolves the backend that should handle this turn.
// An explicit preference either serves or fails with a distinct error;
// it is never silently substituted. Without a preference the first
// available backend in detection order wins.
func (m *Manager) GetCurrent() (Provider, error) {
	preferred := m.config.GetString(internal.KeyPreferredProvider, "")
	if preferred != "" {
		p, ok := m.providers[preferred]
		if !ok {
			return nil, &UnknownProviderError{Name: preferred}
		}
		if !p.IsAvailable() {
			return nil, &UnavailableError{Name: preferred}
		}
		return p, nil
	}

	for _, name := range detectionOrder {
		if p, ok := m.providers[name]; ok && p.IsAvailable() {
			return p, nil
		}
	}
	return nil, &NoneAvailableError{}
}

// Switch validates the named backend (same rules as an explicit
// preference) and persists it as preferred. The setting is never left
// pointing at an unavailable backend.
func (m *Manager) Switch(name string) error {
	p, ok := m.providers[name]
	if !ok {
		return &UnknownProviderError{Name: name}
	}
	if !p.IsAvailable() {
		return &UnavailableError{Name: name}
	}
	scope := internal.ScopeGlobal
	if m.config.IsWorkspaceMode() {
		scope = internal.ScopeWorkspace
	}
	return m.config.Set(internal.KeyPreferredProvider, name, scope)
}

// StatusOf reports a backend's status. Unknown names yield an
// exists-false record rather than an error; this never fails.
func (m *Manager) StatusOf(name string) Status {
	p, ok := m.providers[name]
	if !ok {
		return Status{}
	}
	return Status{
		Exists:       true,
		Available:    p.IsAvailable(),
		ConfigValid:  p.ValidateConfig(),
		DefaultModel: p.DefaultModel(),
	}
}

// ListAll returns the status of every known backend in detection order
func (m *Manager) ListAll() map[string]Status {
	statuses := make(map[string]Status, len(m.providers))
	for _, name := range m.Names() {
		statuses[name] = m.StatusOf(name)
	}
	return statuses
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

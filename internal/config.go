package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigScope selects which of the two config layers a write targets
type ConfigScope string

const (
	ScopeWorkspace ConfigScope = "workspace"
	ScopeGlobal    ConfigScope = "global"
)

// Recognized configuration keys. Arbitrary keys are still stored and
// returned verbatim; these are the ones the core reads.
const (
	KeyPreferredProvider    = "preferred_provider"
	KeyOllamaEndpoint       = "ollama_endpoint"
	KeyOllamaDefaultModel   = "ollama_default_model"
	KeyOpenRouterAPIKey     = "openrouter_api_key"
	KeyDefaultModel         = "default_model"
	KeyPreferFreeModels     = "prefer_free_models"
	KeyFallbackToPaid       = "fallback_to_paid"
	KeyMaxContextMessages   = "max_context_messages"
	KeyWarningThreshold     = "context_warning_threshold"
	KeyModelCacheTTL        = "model_cache_ttl"
	KeyActiveRole           = "active_role"
	KeyRoles                = "roles"
	KeyAutoSaveHistory      = "auto_save_history"
	KeyColorMode            = "color_mode"
)

// Settings is the typed, validated view of the merged configuration
type Settings struct {
	PreferredProvider  string
	OllamaEndpoint     string
	OllamaDefaultModel string
	OpenRouterAPIKey   string
	DefaultModel       string
	PreferFreeModels   bool
	FallbackToPaid     bool
	MaxContextMessages int
	WarningThreshold   float64
	ModelCacheTTL      int // seconds
	ActiveRole         string
}

// ConfigManager reads and writes the two-tier key/value store. Workspace
// values override global values on read; writes go to exactly one scope.
type ConfigManager struct {
	paths *Paths
}

// NewConfigManager creates a config manager over the given paths
func NewConfigManager(paths *Paths) *ConfigManager {
	return &ConfigManager{paths: paths}
}

// Paths returns the resolved profile paths
func (m *ConfigManager) Paths() *Paths {
	return m.paths
}

func (m *ConfigManager) configPath(scope ConfigScope) string {
	if scope == ScopeGlobal {
		return m.paths.GlobalConfigPath()
	}
	return m.paths.WorkspaceConfigPath()
}

func loadConfigFile(path string) map[string]interface{} {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]interface{}{}
	}
	values := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		LogWarn("Ignoring unparseable config file %s: %v", path, err)
		return map[string]interface{}{}
	}
	return values
}

func saveConfigFile(path string, values map[string]interface{}) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return &ConfigError{Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

// Get returns the value for key, workspace layer first, then global
func (m *ConfigManager) Get(key string) (interface{}, bool) {
	workspace := loadConfigFile(m.paths.WorkspaceConfigPath())
	if v, ok := workspace[key]; ok {
		return v, true
	}
	global := loadConfigFile(m.paths.GlobalConfigPath())
	if v, ok := global[key]; ok {
		return v, true
	}
	return nil, false
}

// GetString returns a string config value or the default
func (m *ConfigManager) GetString(key, def string) string {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// GetInt returns an integer config value or the default
func (m *ConfigManager) GetInt(key string, def int) int {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.Atoi(n); err == nil {
			return parsed
		}
	}
	return def
}

// GetFloat returns a float config value or the default
func (m *ConfigManager) GetFloat(key string, def float64) float64 {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed
		}
	}
	return def
}

// GetBool returns a boolean config value or the default
func (m *ConfigManager) GetBool(key string, def bool) bool {
	v, ok := m.Get(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// Set writes a value into the given scope
func (m *ConfigManager) Set(key string, value interface{}, scope ConfigScope) error {
	path := m.configPath(scope)
	if err := EnsureDir(dirOf(path)); err != nil {
		return err
	}
	values := loadConfigFile(path)
	values[key] = value
	return saveConfigFile(path, values)
}

// Unset removes a key from the given scope
func (m *ConfigManager) Unset(key string, scope ConfigScope) error {
	path := m.configPath(scope)
	values := loadConfigFile(path)
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return saveConfigFile(path, values)
}

// ListAll returns both config layers without merging
func (m *ConfigManager) ListAll() (workspace, global map[string]interface{}) {
	return loadConfigFile(m.paths.WorkspaceConfigPath()),
		loadConfigFile(m.paths.GlobalConfigPath())
}

// SortedKeys returns the keys of a config layer in stable order
func SortedKeys(values map[string]interface{}) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InitConfig writes an initial config file for the scope unless one exists
func (m *ConfigManager) InitConfig(scope ConfigScope, initial map[string]interface{}) error {
	path := m.configPath(scope)
	if err := EnsureDir(dirOf(path)); err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if initial == nil {
		initial = DefaultConfig()
	}
	return saveConfigFile(path, initial)
}

// IsWorkspaceMode reports whether a workspace config is present
func (m *ConfigManager) IsWorkspaceMode() bool {
	return m.paths.IsWorkspaceMode()
}

// Settings resolves the merged configuration into its typed form,
// falling back to defaults for missing or out-of-range values
func (m *ConfigManager) Settings() *Settings {
	s := &Settings{
		PreferredProvider:  m.GetString(KeyPreferredProvider, ""),
		OllamaEndpoint:     m.GetString(KeyOllamaEndpoint, DefaultOllamaEndpoint),
		OllamaDefaultModel: m.GetString(KeyOllamaDefaultModel, DefaultOllamaModel),
		OpenRouterAPIKey:   m.GetString(KeyOpenRouterAPIKey, ""),
		DefaultModel:       m.GetString(KeyDefaultModel, ""),
		PreferFreeModels:   m.GetBool(KeyPreferFreeModels, true),
		FallbackToPaid:     m.GetBool(KeyFallbackToPaid, false),
		MaxContextMessages: m.GetInt(KeyMaxContextMessages, DefaultMaxMessages),
		WarningThreshold:   m.GetFloat(KeyWarningThreshold, DefaultWarningThreshold),
		ModelCacheTTL:      m.GetInt(KeyModelCacheTTL, DefaultModelCacheTTL),
		ActiveRole:         m.GetString(KeyActiveRole, DefaultRoleName),
	}
	if s.MaxContextMessages <= 0 {
		s.MaxContextMessages = DefaultMaxMessages
	}
	if s.WarningThreshold <= 0 || s.WarningThreshold > 1 {
		s.WarningThreshold = DefaultWarningThreshold
	}
	if s.ModelCacheTTL <= 0 {
		s.ModelCacheTTL = DefaultModelCacheTTL
	}
	return s
}

// Defaults shared between InitConfig and Settings
const (
	DefaultOllamaEndpoint   = "http://localhost:11434"
	DefaultOllamaModel      = "qwen2.5-coder:3b"
	DefaultMaxMessages      = 50
	DefaultWarningThreshold = 0.8
	DefaultModelCacheTTL    = 3600
)

// DefaultConfig returns the initial key/value set written by `enai init`
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		KeyPreferredProvider:  "ollama",
		KeyOllamaEndpoint:     DefaultOllamaEndpoint,
		KeyOllamaDefaultModel: DefaultOllamaModel,
		KeyPreferFreeModels:   true,
		KeyFallbackToPaid:     false,
		KeyColorMode:          true,
		KeyAutoSaveHistory:    true,
		KeyMaxContextMessages: DefaultMaxMessages,
		KeyWarningThreshold:   DefaultWarningThreshold,
		KeyModelCacheTTL:      DefaultModelCacheTTL,
		KeyActiveRole:         DefaultRoleName,
	}
}

func dirOf(path string) string {
	return filepath.Dir(path)
}

package internal

import "sort"

// DefaultRoleName is the persona applied when none is configured
const DefaultRoleName = "default"

// Role is a named system-prompt profile applied to a session's context
type Role struct {
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
}

// builtinRoles are always available; custom roles from config are merged
// over them by name
var builtinRoles = map[string]Role{
	"default": {
		SystemPrompt: "You are a helpful AI assistant running inside a " +
			"command-line environment. Answer concisely and prefer " +
			"practical, directly usable responses.",
	},
	"shell": {
		SystemPrompt: "You are a terminal and command-line expert. When the " +
			"user asks how to do something, reply with the exact shell " +
			"command inside a fenced code block, followed by a one-line " +
			"explanation. Prefer portable POSIX commands.",
	},
	"code": {
		SystemPrompt: "You are a world-class software engineer. Provide " +
			"working, idiomatic code with brief explanations. Point out " +
			"edge cases and pitfalls where relevant.",
	},
}

// BuiltinRoles returns a copy of the built-in role set
func BuiltinRoles() map[string]Role {
	roles := make(map[string]Role, len(builtinRoles))
	for name, role := range builtinRoles {
		roles[name] = role
	}
	return roles
}

// Roles returns the merged role set: custom roles from config override
// built-ins of the same name, built-ins are never removed
func (m *ConfigManager) Roles() map[string]Role {
	roles := BuiltinRoles()
	raw, ok := m.Get(KeyRoles)
	if !ok {
		return roles
	}
	custom, ok := raw.(map[string]interface{})
	if !ok {
		LogWarn("Ignoring malformed roles config (expected mapping)")
		return roles
	}
	for name, value := range custom {
		entry, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		prompt, ok := entry["system_prompt"].(string)
		if !ok || prompt == "" {
			continue
		}
		roles[name] = Role{SystemPrompt: prompt}
	}
	return roles
}

// RoleNames returns all role names in stable order
func (m *ConfigManager) RoleNames() []string {
	roles := m.Roles()
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveRoleName returns the configured persona, falling back to default
// when the configured name does not resolve to a known role
func (m *ConfigManager) ActiveRoleName() string {
	name := m.GetString(KeyActiveRole, DefaultRoleName)
	if _, ok := m.Roles()[name]; !ok {
		LogWarn("Active role %q not found, using %q", name, DefaultRoleName)
		return DefaultRoleName
	}
	return name
}

// ActiveRolePrompt returns the system prompt of the active persona
func (m *ConfigManager) ActiveRolePrompt() string {
	return m.Roles()[m.ActiveRoleName()].SystemPrompt
}

// AddRole stores a custom role in the given scope
func (m *ConfigManager) AddRole(name, prompt string, scope ConfigScope) error {
	raw, _ := m.Get(KeyRoles)
	custom, ok := raw.(map[string]interface{})
	if !ok {
		custom = map[string]interface{}{}
	}
	custom[name] = map[string]interface{}{"system_prompt": prompt}
	return m.Set(KeyRoles, custom, scope)
}

// DeleteRole removes a custom role. Built-in roles cannot be deleted;
// returns false when the name is not a deletable custom role.
func (m *ConfigManager) DeleteRole(name string, scope ConfigScope) (bool, error) {
	if _, builtin := builtinRoles[name]; builtin {
		return false, nil
	}
	raw, _ := m.Get(KeyRoles)
	custom, ok := raw.(map[string]interface{})
	if !ok {
		return false, nil
	}
	if _, ok := custom[name]; !ok {
		return false, nil
	}
	delete(custom, name)
	if err := m.Set(KeyRoles, custom, scope); err != nil {
		return false, err
	}
	return true, nil
}

package internal

import "testing"

func TestBuiltinRolesAlwaysPresent(t *testing.T) {
	config := newTestConfig(t)
	roles := config.Roles()
	for _, name := range []string{"default", "shell", "code"} {
		role, ok := roles[name]
		if !ok {
			t.Errorf("Built-in role %q missing", name)
			continue
		}
		if role.SystemPrompt == "" {
			t.Errorf("Built-in role %q has empty prompt", name)
		}
	}
}

func TestAddCustomRole(t *testing.T) {
	config := newTestConfig(t)
	if err := config.AddRole("reviewer", "You review diffs.", ScopeGlobal); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}
	role, ok := config.Roles()["reviewer"]
	if !ok {
		t.Fatal("Custom role not found after AddRole")
	}
	if role.SystemPrompt != "You review diffs." {
		t.Errorf("Unexpected prompt: %q", role.SystemPrompt)
	}
}

func TestCustomRoleShadowsBuiltin(t *testing.T) {
	config := newTestConfig(t)
	if err := config.AddRole("shell", "Custom shell persona.", ScopeGlobal); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}
	if got := config.Roles()["shell"].SystemPrompt; got != "Custom shell persona." {
		t.Errorf("Custom role should shadow built-in, got %q", got)
	}
}

func TestActiveRoleFallsBackToDefault(t *testing.T) {
	config := newTestConfig(t)
	if err := config.Set(KeyActiveRole, "no-such-role", ScopeGlobal); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := config.ActiveRoleName(); got != DefaultRoleName {
		t.Errorf("Unknown active role should fall back to %q, got %q", DefaultRoleName, got)
	}
	if config.ActiveRolePrompt() == "" {
		t.Error("Fallback role should still have a prompt")
	}
}

func TestDeleteRole(t *testing.T) {
	config := newTestConfig(t)

	deleted, err := config.DeleteRole("default", ScopeGlobal)
	if err != nil {
		t.Fatalf("DeleteRole failed: %v", err)
	}
	if deleted {
		t.Error("Built-in roles must not be deletable")
	}

	if err := config.AddRole("temp", "Temporary.", ScopeGlobal); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}
	deleted, err = config.DeleteRole("temp", ScopeGlobal)
	if err != nil {
		t.Fatalf("DeleteRole failed: %v", err)
	}
	if !deleted {
		t.Error("Custom role should be deletable")
	}
	if _, ok := config.Roles()["temp"]; ok {
		t.Error("Deleted role still present")
	}

	deleted, err = config.DeleteRole("never-existed", ScopeGlobal)
	if err != nil {
		t.Fatalf("DeleteRole failed: %v", err)
	}
	if deleted {
		t.Error("Deleting an unknown role should report false")
	}
}

func TestRoleNamesSorted(t *testing.T) {
	config := newTestConfig(t)
	if err := config.AddRole("aardvark", "First.", ScopeGlobal); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}
	names := config.RoleNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("RoleNames not sorted: %v", names)
		}
	}
	if names[0] != "aardvark" {
		t.Errorf("Expected aardvark first, got %v", names)
	}
}

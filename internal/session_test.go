package internal

import (
	"os"
	"strings"
	"testing"
	"time"
)

func newTestSessionManager(t *testing.T, maxMessages int) (*ConfigManager, *SessionManager) {
	t.Helper()
	config := newTestConfig(t)
	if err := config.Set(KeyMaxContextMessages, maxMessages, ScopeGlobal); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	manager, err := NewSessionManager(config)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return config, manager
}

func TestNewSessionPersistsBothRecords(t *testing.T) {
	config, manager := newTestSessionManager(t, 50)
	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if len(session.ID) != 8 {
		t.Errorf("Session ID should be 8 chars, got %q", session.ID)
	}
	if session.Role != DefaultRoleName {
		t.Errorf("New session role = %q, want %q", session.Role, DefaultRoleName)
	}

	// A fresh manager over the same profile must resolve the same session.
	reloaded, err := NewSessionManager(config)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	current, err := reloaded.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current.ID != session.ID {
		t.Errorf("Reloaded current = %s, want %s", current.ID, session.ID)
	}
	if loaded := reloaded.LoadSession(session.ID); loaded == nil {
		t.Error("Per-session record missing after NewSession")
	}
}

func TestIncrementCountsAndPersists(t *testing.T) {
	config, manager := newTestSessionManager(t, 50)
	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	const turns = 7
	for i := 0; i < turns; i++ {
		if _, err := manager.Increment(); err != nil {
			t.Fatalf("Increment %d failed: %v", i, err)
		}
	}
	if got := manager.MessageCount(); got != turns {
		t.Errorf("MessageCount = %d, want %d", got, turns)
	}

	reloaded, err := NewSessionManager(config)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	if got := reloaded.MessageCount(); got != turns {
		t.Errorf("Persisted count = %d, want %d", got, turns)
	}
	if loaded := reloaded.LoadSession(session.ID); loaded == nil || loaded.MessageCount != turns {
		t.Errorf("Per-session record count mismatch: %+v", loaded)
	}
}

func TestWarnAndLimitThresholds(t *testing.T) {
	_, manager := newTestSessionManager(t, 5)
	if _, err := manager.NewSession(); err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	// ceiling 5, threshold 0.8 -> advisory at 4
	if got := manager.WarnThreshold(); got != 4 {
		t.Fatalf("WarnThreshold = %d, want 4", got)
	}

	for i := 0; i < 3; i++ {
		if _, err := manager.Increment(); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	if manager.ShouldWarnLimit() {
		t.Error("No advisory expected at 3/5")
	}

	if _, err := manager.Increment(); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if !manager.ShouldWarnLimit() {
		t.Error("Advisory expected at 4/5")
	}
	if manager.IsAtLimit() {
		t.Error("Hard limit not expected at 4/5")
	}
	if got := manager.Remaining(); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}

	if _, err := manager.Increment(); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if !manager.IsAtLimit() {
		t.Error("Hard limit expected at 5/5")
	}
	if got := manager.Remaining(); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if got := manager.UsagePercent(); got != 100 {
		t.Errorf("UsagePercent = %v, want 100", got)
	}
}

func TestResetCountLiftsLimit(t *testing.T) {
	config, manager := newTestSessionManager(t, 3)
	if _, err := manager.NewSession(); err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := manager.Increment(); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	if !manager.IsAtLimit() {
		t.Fatal("Expected the hard limit at 3/3")
	}

	if err := manager.ResetCount(); err != nil {
		t.Fatalf("ResetCount failed: %v", err)
	}
	if manager.IsAtLimit() || manager.MessageCount() != 0 {
		t.Errorf("Reset should zero the counter, got %d", manager.MessageCount())
	}

	reloaded, err := NewSessionManager(config)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	if got := reloaded.MessageCount(); got != 0 {
		t.Errorf("Reset not persisted, got %d", got)
	}
}

func TestSwitchSession(t *testing.T) {
	_, manager := newTestSessionManager(t, 50)
	first, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	second, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("Two sessions share an ID")
	}

	ok, err := manager.SwitchSession(first.ID)
	if err != nil {
		t.Fatalf("SwitchSession failed: %v", err)
	}
	if !ok {
		t.Fatal("SwitchSession reported not found for an existing session")
	}
	current, err := manager.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current.ID != first.ID {
		t.Errorf("Current = %s, want %s", current.ID, first.ID)
	}

	ok, err = manager.SwitchSession("deadbeef")
	if err != nil {
		t.Fatalf("SwitchSession failed: %v", err)
	}
	if ok {
		t.Error("SwitchSession should report false for an unknown ID")
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	_, manager := newTestSessionManager(t, 50)
	first, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	second, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	sessions := manager.ListSessions()
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Errorf("Expected newest-first ordering, got %s then %s",
			sessions[0].ID, sessions[1].ID)
	}
}

func TestListSessionsSkipsCorruptRecords(t *testing.T) {
	_, manager := newTestSessionManager(t, 50)
	if _, err := manager.NewSession(); err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	corrupt := manager.sessionPath("badfile1")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	sessions := manager.ListSessions()
	if len(sessions) != 1 {
		t.Errorf("Corrupt record should be skipped, got %d sessions", len(sessions))
	}
}

func TestDeleteSession(t *testing.T) {
	_, manager := newTestSessionManager(t, 50)
	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	history, err := NewHistoryLog(manager.SessionsDir(), session.ID)
	if err != nil {
		t.Fatalf("NewHistoryLog failed: %v", err)
	}
	if err := history.AppendUser("hello"); err != nil {
		t.Fatalf("AppendUser failed: %v", err)
	}

	deleted, err := manager.DeleteSession(session.ID)
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if !deleted {
		t.Fatal("DeleteSession reported not found")
	}
	if manager.HasCurrent() {
		t.Error("Deleting the current session should clear the pointer")
	}
	if manager.LoadSession(session.ID) != nil {
		t.Error("Session record still loadable after delete")
	}
	if _, err := os.Stat(history.Path()); !os.IsNotExist(err) {
		t.Error("History log still present after delete")
	}

	deleted, err = manager.DeleteSession("deadbeef")
	if err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if deleted {
		t.Error("Deleting an unknown session should report false")
	}
}

func TestArchiveSessionKeepsRecordLoadable(t *testing.T) {
	_, manager := newTestSessionManager(t, 50)
	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	history, err := NewHistoryLog(manager.SessionsDir(), session.ID)
	if err != nil {
		t.Fatalf("NewHistoryLog failed: %v", err)
	}
	if err := history.AppendUser("how do I list files"); err != nil {
		t.Fatalf("AppendUser failed: %v", err)
	}

	archivePath, err := manager.ArchiveSession()
	if err != nil {
		t.Fatalf("ArchiveSession failed: %v", err)
	}
	data, err := os.ReadFile(archivePath)
	if err != nil {
		t.Fatalf("Archive file unreadable: %v", err)
	}
	if !strings.Contains(string(data), "how do I list files") {
		t.Error("Archive transcript missing recorded message")
	}

	// Archiving never destroys the session; a new one replaces it.
	fresh, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if fresh.ID == session.ID {
		t.Error("Fresh session reused the archived session's ID")
	}
	if fresh.MessageCount != 0 {
		t.Errorf("Fresh session count = %d, want 0", fresh.MessageCount)
	}
	if manager.LoadSession(session.ID) == nil {
		t.Error("Archived session record should remain loadable")
	}
}

func TestSessionStats(t *testing.T) {
	_, manager := newTestSessionManager(t, 10)
	session, err := manager.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := manager.Increment(); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	current, err := manager.Current()
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	stats := manager.SessionStats(current)
	if stats.SessionID != session.ID {
		t.Errorf("Stats session = %s, want %s", stats.SessionID, session.ID)
	}
	if stats.MessageCount != 4 || stats.MaxMessages != 10 || stats.Remaining != 6 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.UsagePercent != 40 {
		t.Errorf("UsagePercent = %v, want 40", stats.UsagePercent)
	}
}

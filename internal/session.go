package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session represents one bounded, persisted conversation
type Session struct {
	ID           string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
	Role         string    `json:"role"`
}

// NewSessionID returns a short random session token
func NewSessionID() string {
	return uuid.NewString()[:8]
}

// SessionManager owns the current session's identity, its message-count
// accounting against the configured ceiling, and the lifecycle operations
// over persisted session records. Every mutation persists both the
// current-pointer file and the session's own record immediately; the
// interactive loop may be interrupted at any point.
type SessionManager struct {
	config      *ConfigManager
	sessionsDir string
	archivesDir string
	maxMessages int
	warnFrac    float64

	current *Session
}

// NewSessionManager creates a session manager over the configured profile
func NewSessionManager(config *ConfigManager) (*SessionManager, error) {
	settings := config.Settings()
	sessionsDir := config.Paths().SessionsDir()
	if err := EnsureDir(sessionsDir); err != nil {
		return nil, err
	}
	return &SessionManager{
		config:      config,
		sessionsDir: sessionsDir,
		archivesDir: config.Paths().ArchivesDir(),
		maxMessages: settings.MaxContextMessages,
		warnFrac:    settings.WarningThreshold,
	}, nil
}

// SessionsDir returns the directory holding session records and logs
func (m *SessionManager) SessionsDir() string {
	return m.sessionsDir
}

// MaxMessages returns the configured per-session ceiling
func (m *SessionManager) MaxMessages() int {
	return m.maxMessages
}

func (m *SessionManager) currentPointerPath() string {
	return filepath.Join(m.sessionsDir, "current.json")
}

func (m *SessionManager) sessionPath(id string) string {
	return filepath.Join(m.sessionsDir, id+".json")
}

// writeSessionFile writes one session record via temp-file + rename so a
// crash mid-write never leaves a torn record. Atomicity across the two
// record files is still not guaranteed.
func writeSessionFile(path string, session *Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}

func readSessionFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}
	if session.ID == "" {
		return nil, &StorageError{Path: path, Op: "read", Err: fmt.Errorf("missing session_id")}
	}
	return &session, nil
}

// persist writes both the current pointer and the per-session record
func (m *SessionManager) persist(session *Session) error {
	if err := writeSessionFile(m.currentPointerPath(), session); err != nil {
		return err
	}
	return writeSessionFile(m.sessionPath(session.ID), session)
}

// Current returns the active session, loading it from the pointer file or
// creating a fresh one when no usable pointer exists
func (m *SessionManager) Current() (*Session, error) {
	if m.current != nil {
		return m.current, nil
	}
	session, err := readSessionFile(m.currentPointerPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			LogWarn("Current session pointer unreadable, starting fresh: %v", err)
		}
		return m.NewSession()
	}
	m.current = session
	return session, nil
}

// HasCurrent reports whether a current pointer exists without creating one
func (m *SessionManager) HasCurrent() bool {
	if m.current != nil {
		return true
	}
	_, err := os.Stat(m.currentPointerPath())
	return err == nil
}

// NewSession creates a fresh session under the active persona and makes
// it current
func (m *SessionManager) NewSession() (*Session, error) {
	now := time.Now()
	session := &Session{
		ID:           NewSessionID(),
		CreatedAt:    now,
		LastActivity: now,
		MessageCount: 0,
		Role:         m.config.ActiveRoleName(),
	}
	if err := m.persist(session); err != nil {
		return nil, err
	}
	m.current = session
	LogInfo("Created session %s (role %s)", session.ID, session.Role)
	return session, nil
}

// Increment records one attempted turn: count+1 and activity refresh,
// persisted to both locations before returning
func (m *SessionManager) Increment() (int, error) {
	session, err := m.Current()
	if err != nil {
		return 0, err
	}
	session.MessageCount++
	session.LastActivity = time.Now()
	if err := m.persist(session); err != nil {
		return session.MessageCount, err
	}
	return session.MessageCount, nil
}

// ResetCount zeroes the current session's counter; used after the
// operator clears the history log
func (m *SessionManager) ResetCount() error {
	session, err := m.Current()
	if err != nil {
		return err
	}
	session.MessageCount = 0
	session.LastActivity = time.Now()
	return m.persist(session)
}

// MessageCount returns the current session's counter, zero when no
// session is active
func (m *SessionManager) MessageCount() int {
	if !m.HasCurrent() {
		return 0
	}
	session, err := m.Current()
	if err != nil {
		return 0
	}
	return session.MessageCount
}

// WarnThreshold returns the message count at which the advisory fires
func (m *SessionManager) WarnThreshold() int {
	return int(float64(m.maxMessages) * m.warnFrac)
}

// ShouldWarnLimit reports whether the advisory threshold has been reached
func (m *SessionManager) ShouldWarnLimit() bool {
	return m.MessageCount() >= m.WarnThreshold()
}

// IsAtLimit reports whether the hard ceiling has been reached
func (m *SessionManager) IsAtLimit() bool {
	return m.MessageCount() >= m.maxMessages
}

// Remaining returns how many messages fit before the ceiling
func (m *SessionManager) Remaining() int {
	remaining := m.maxMessages - m.MessageCount()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UsagePercent returns counter usage as a percentage of the ceiling
func (m *SessionManager) UsagePercent() float64 {
	return float64(m.MessageCount()) / float64(m.maxMessages) * 100
}

// LoadSession reads one session record; nil when the id does not exist
// or the record is unparseable
func (m *SessionManager) LoadSession(id string) *Session {
	session, err := readSessionFile(m.sessionPath(id))
	if err != nil {
		return nil
	}
	return session
}

// SwitchSession makes an existing session current. Returns false when the
// id has no record; the caller surfaces the failure.
func (m *SessionManager) SwitchSession(id string) (bool, error) {
	session := m.LoadSession(id)
	if session == nil {
		return false, nil
	}
	if err := writeSessionFile(m.currentPointerPath(), session); err != nil {
		return false, err
	}
	m.current = session
	return true, nil
}

// ListSessions returns all session records newest-first. Records that
// fail to parse are skipped, never fatal.
func (m *SessionManager) ListSessions() []*Session {
	entries, err := os.ReadDir(m.sessionsDir)
	if err != nil {
		return nil
	}
	var sessions []*Session
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == "current.json" || !strings.HasSuffix(name, ".json") {
			continue
		}
		session, err := readSessionFile(filepath.Join(m.sessionsDir, name))
		if err != nil {
			LogDebug("Skipping unparseable session record %s: %v", name, err)
			continue
		}
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

// DeleteSession removes a session's record and history log. Deleting the
// current session clears the pointer so the next access starts fresh.
func (m *SessionManager) DeleteSession(id string) (bool, error) {
	deleted := false
	if err := os.Remove(m.sessionPath(id)); err == nil {
		deleted = true
	} else if !os.IsNotExist(err) {
		return false, &StorageError{Path: m.sessionPath(id), Op: "delete", Err: err}
	}
	historyPath := filepath.Join(m.sessionsDir, id+".jsonl")
	if err := os.Remove(historyPath); err != nil && !os.IsNotExist(err) {
		return deleted, &StorageError{Path: historyPath, Op: "delete", Err: err}
	}
	if m.currentSessionIs(id) {
		m.current = nil
		if err := os.Remove(m.currentPointerPath()); err != nil && !os.IsNotExist(err) {
			return deleted, &StorageError{Path: m.currentPointerPath(), Op: "delete", Err: err}
		}
	}
	return deleted, nil
}

func (m *SessionManager) currentSessionIs(id string) bool {
	if m.current != nil {
		return m.current.ID == id
	}
	session, err := readSessionFile(m.currentPointerPath())
	return err == nil && session.ID == id
}

// ArchiveSession exports the current session's transcript to a
// timestamped file under the archives directory. The session record
// itself stays on disk, immutable and discoverable via ListSessions.
func (m *SessionManager) ArchiveSession() (string, error) {
	session, err := m.Current()
	if err != nil {
		return "", err
	}
	history, err := NewHistoryLog(m.sessionsDir, session.ID)
	if err != nil {
		return "", err
	}
	timestamp := time.Now().Format("20060102_150405")
	archivePath := filepath.Join(m.archivesDir,
		fmt.Sprintf("session_%s_%s.md", session.ID, timestamp))
	if err := history.SaveMarkdown(archivePath); err != nil {
		return "", err
	}
	LogInfo("Archived session %s to %s", session.ID, archivePath)
	return archivePath, nil
}

// Stats describes the current session for display
type Stats struct {
	SessionID    string
	Role         string
	CreatedAt    time.Time
	LastActivity time.Time
	MessageCount int
	MaxMessages  int
	Remaining    int
	UsagePercent float64
}

// SessionStats returns display stats for the given session, using the
// manager's configured ceiling
func (m *SessionManager) SessionStats(session *Session) Stats {
	remaining := m.maxMessages - session.MessageCount
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		SessionID:    session.ID,
		Role:         session.Role,
		CreatedAt:    session.CreatedAt,
		LastActivity: session.LastActivity,
		MessageCount: session.MessageCount,
		MaxMessages:  m.maxMessages,
		Remaining:    remaining,
		UsagePercent: float64(session.MessageCount) / float64(m.maxMessages) * 100,
	}
}

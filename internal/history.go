package internal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MessageRole identifies who produced a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// outputPreviewLimit caps command output embedded in transcripts
const outputPreviewLimit = 500

// Message is one turn in a conversation. Messages are append-only: once
// recorded they are never mutated or reordered, only filtered on read.
type Message struct {
	Role      MessageRole            `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// APIMessage is the wire shape submitted to a provider
type APIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryLog is the append-only durable message log for one session.
// Each message is one JSON line; appends are unbuffered so the last
// message survives an interrupt.
type HistoryLog struct {
	sessionsDir string
	sessionID   string
}

// NewHistoryLog creates a history log for the given session
func NewHistoryLog(sessionsDir, sessionID string) (*HistoryLog, error) {
	if err := EnsureDir(sessionsDir); err != nil {
		return nil, err
	}
	return &HistoryLog{sessionsDir: sessionsDir, sessionID: sessionID}, nil
}

// Path returns the log file path
func (h *HistoryLog) Path() string {
	return filepath.Join(h.sessionsDir, h.sessionID+".jsonl")
}

// Append records one message. The write is a single O_APPEND syscall so
// concurrent reads within the process observe it immediately.
func (h *HistoryLog) Append(role MessageRole, content string, metadata map[string]interface{}) error {
	msg := Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
	line, err := json.Marshal(msg)
	if err != nil {
		return &StorageError{Path: h.Path(), Op: "write", Err: err}
	}
	f, err := os.OpenFile(h.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &StorageError{Path: h.Path(), Op: "open", Err: err}
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return &StorageError{Path: h.Path(), Op: "write", Err: err}
	}
	return nil
}

// AppendUser records a user turn
func (h *HistoryLog) AppendUser(content string) error {
	return h.Append(RoleUser, content, nil)
}

// AppendAssistant records an assistant turn
func (h *HistoryLog) AppendAssistant(content string) error {
	return h.Append(RoleAssistant, content, nil)
}

// AppendSystem records a system entry such as a command execution outcome
func (h *HistoryLog) AppendSystem(content string, metadata map[string]interface{}) error {
	return h.Append(RoleSystem, content, metadata)
}

// ReadAll returns messages in append order. Corrupt lines are skipped.
// A positive limit keeps only the newest limit messages; a role filter
// restricts the result to one role before the limit applies.
func (h *HistoryLog) ReadAll(limit int, roleFilter MessageRole) ([]Message, error) {
	f, err := os.Open(h.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Path: h.Path(), Op: "open", Err: err}
	}
	defer f.Close()

	var messages []Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			LogDebug("Skipping unparseable history line: %v", err)
			continue
		}
		if !msg.Role.Valid() {
			LogDebug("Skipping history line with unknown role %q", msg.Role)
			continue
		}
		if roleFilter != "" && msg.Role != roleFilter {
			continue
		}
		messages = append(messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, &StorageError{Path: h.Path(), Op: "read", Err: err}
	}
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Valid reports whether the role is one of the three enumerated values
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

// Count returns the number of parseable records in the log
func (h *HistoryLog) Count() (int, error) {
	messages, err := h.ReadAll(0, "")
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}

// ContextWindow returns the newest limit user/assistant messages,
// oldest-first, in provider wire format. System entries never reach the
// model as conversation turns; the persona prompt is prepended by the
// caller and is not part of the rolling window.
func (h *HistoryLog) ContextWindow(limit int) ([]APIMessage, error) {
	messages, err := h.ReadAll(0, "")
	if err != nil {
		return nil, err
	}
	window := make([]APIMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleUser || msg.Role == RoleAssistant {
			window = append(window, APIMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}
	}
	if limit > 0 && len(window) > limit {
		window = window[len(window)-limit:]
	}
	return window, nil
}

// Clear destroys the log file. It does not reset the owning session's
// message counter.
func (h *HistoryLog) Clear() error {
	if err := os.Remove(h.Path()); err != nil && !os.IsNotExist(err) {
		return &StorageError{Path: h.Path(), Op: "delete", Err: err}
	}
	return nil
}

// ExportMarkdown renders the full log as a human-readable transcript
// grouped by timestamp. System entries include the executed command and
// a capped slice of its output.
func (h *HistoryLog) ExportMarkdown() (string, error) {
	messages, err := h.ReadAll(0, "")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# Conversation Transcript\n\n")
	b.WriteString(fmt.Sprintf("**Session ID**: %s\n", h.sessionID))
	if len(messages) == 0 {
		b.WriteString("\nNo messages recorded.\n")
		return b.String(), nil
	}
	b.WriteString(fmt.Sprintf("**Created**: %s\n", messages[0].Timestamp.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Last activity**: %s\n", messages[len(messages)-1].Timestamp.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("**Messages**: %d\n\n---\n\n## Conversation\n\n", len(messages)))

	currentTime := ""
	for _, msg := range messages {
		ts := msg.Timestamp.Format("2006-01-02 15:04:05")
		if ts != currentTime {
			currentTime = ts
			b.WriteString(fmt.Sprintf("### %s\n\n", ts))
		}
		b.WriteString(fmt.Sprintf("**%s**:\n", roleDisplay(msg.Role)))
		b.WriteString(msg.Content)
		b.WriteString("\n")
		if msg.Role == RoleSystem && msg.Metadata != nil {
			writeCommandOutcome(&b, msg.Metadata)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// SaveMarkdown writes the transcript to a file, creating parent dirs
func (h *HistoryLog) SaveMarkdown(outputPath string) error {
	transcript, err := h.ExportMarkdown()
	if err != nil {
		return err
	}
	if err := EnsureDir(filepath.Dir(outputPath)); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(transcript), 0644); err != nil {
		return &ExportError{Path: outputPath, Err: err}
	}
	return nil
}

func roleDisplay(role MessageRole) string {
	switch role {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return "System"
	}
}

func writeCommandOutcome(b *strings.Builder, metadata map[string]interface{}) {
	if command, ok := metadata["command"].(string); ok && command != "" {
		b.WriteString("```bash\n")
		b.WriteString(command)
		b.WriteString("\n```\n")
	}
	if output, ok := metadata["output"].(string); ok && output != "" {
		b.WriteString("```\n")
		if len(output) > outputPreviewLimit {
			b.WriteString(output[:outputPreviewLimit])
			b.WriteString("\n... (output truncated)")
		} else {
			b.WriteString(output)
		}
		b.WriteString("\n```\n")
	}
}

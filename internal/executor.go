package internal

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds a single shell command execution
const DefaultCommandTimeout = 30 * time.Second

// ExecutionResult is the outcome of one shell command execution
type ExecutionResult struct {
	Command  string
	ExitCode int
	Output   string
	Error    string
}

// Success reports whether the command exited zero
func (r ExecutionResult) Success() bool {
	return r.ExitCode == 0
}

// dangerousKeywords mark commands that warrant an extra warning before
// execution. Substring matching is deliberately coarse.
var dangerousKeywords = []string{
	"rm ", "rm\t", "del ", "rmdir", "format", "mkfs",
	"dd ", "fdisk", "parted",
	"shutdown", "reboot", "poweroff",
	">", ">>",
}

// privilegePrefixes are commands that escalate privileges
var privilegePrefixes = map[string]bool{
	"sudo": true,
	"su":   true,
	"doas": true,
}

// CommandExecutor runs model-suggested shell commands as bounded
// subprocesses. The core treats it as an opaque capability; it only
// decides whether to offer execution and what to log as the outcome.
type CommandExecutor struct {
	shell   string
	timeout time.Duration
}

// NewCommandExecutor creates an executor using /bin/sh with the default
// timeout
func NewCommandExecutor() *CommandExecutor {
	return &CommandExecutor{shell: "/bin/sh", timeout: DefaultCommandTimeout}
}

// IsDangerous reports whether the command contains a destructive keyword
func (e *CommandExecutor) IsDangerous(command string) bool {
	lower := strings.ToLower(command)
	for _, keyword := range dangerousKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// RequiresPrivilege reports whether the command starts with an
// escalation prefix like sudo
func (e *CommandExecutor) RequiresPrivilege(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	return privilegePrefixes[strings.ToLower(fields[0])]
}

// Execute runs the command through the shell with the configured timeout.
// Timeouts and spawn failures are reported as results, not errors; the
// caller always gets an outcome to record.
func (e *CommandExecutor) Execute(command string) ExecutionResult {
	if strings.TrimSpace(command) == "" {
		return ExecutionResult{
			Command:  command,
			ExitCode: -1,
			Error:    "command is empty",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := ExecutionResult{
		Command: command,
		Output:  stdout.String(),
		Error:   stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.ExitCode = -1
		result.Error = fmt.Sprintf("command timed out after %s", e.timeout)
		return result
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
			result.Error = fmt.Sprintf("execution failed: %v", err)
		}
		return result
	}
	result.ExitCode = 0
	return result
}

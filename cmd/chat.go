package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/iksnae/enai/internal"
	"github.com/iksnae/enai/internal/provider"
	"github.com/spf13/cobra"
)

// contextWindowSize is how many recent turns are submitted per request
const contextWindowSize = 10

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive AI conversation",
	Long: `Start the interactive conversation loop.

Each turn is checked against the session's message ceiling: at 80%
usage an advisory offers to archive; at the ceiling no further turns
are sent until the session is archived or its history cleared.

Type 'exit' or 'quit' to leave and 'stats' for session statistics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, providers, err := newProviderManager()
		if err != nil {
			return err
		}
		defer providers.Close()

		sessions, err := internal.NewSessionManager(config)
		if err != nil {
			return err
		}
		current, err := sessions.Current()
		if err != nil {
			return err
		}
		history, err := internal.NewHistoryLog(sessions.SessionsDir(), current.ID)
		if err != nil {
			return err
		}

		loop := &chatLoop{
			config:    config,
			providers: providers,
			sessions:  sessions,
			history:   history,
			executor:  internal.NewCommandExecutor(),
			suggester: internal.NewHeuristicSuggester(),
		}
		return loop.run(current.ID)
	},
}

// chatLoop drives the read-input → check-limits → send → record cycle.
// It is thin glue: all policy lives in the session manager, the history
// log and the provider manager.
type chatLoop struct {
	config    *internal.ConfigManager
	providers *provider.Manager
	sessions  *internal.SessionManager
	history   *internal.HistoryLog
	executor  *internal.CommandExecutor
	suggester internal.Suggester
}

func (l *chatLoop) run(sessionID string) error {
	fmt.Println(headerStyle.Render("🤖 enai chat"))
	fmt.Printf("Session: %s  Role: %s\n", idStyle.Render(sessionID),
		l.config.ActiveRoleName())
	fmt.Println("Type 'exit' or 'quit' to leave, 'stats' for statistics")
	fmt.Println()

	inputs, readErrs := readLines()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	for {
		if l.sessions.IsAtLimit() {
			if done := l.handleAtLimit(inputs); done {
				continue
			}
			return nil
		}
		if l.sessions.ShouldWarnLimit() {
			l.handleWarning(inputs)
		}

		fmt.Print(userStyle.Render("You") + " > ")
		var input string
		select {
		case input = <-inputs:
		case <-interrupts:
			fmt.Println()
			if l.confirmExit(inputs, interrupts) {
				printInfo("Goodbye! 👋")
				return nil
			}
			continue
		case err := <-readErrs:
			_ = err // EOF or closed stdin ends the conversation
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit":
			printInfo("Goodbye! 👋")
			return nil
		case "stats":
			current, err := l.sessions.Current()
			if err != nil {
				printError("%v", err)
				continue
			}
			printSessionStats(l.sessions.SessionStats(current))
			continue
		}

		if err := l.handleTurn(input, inputs); err != nil {
			// One failed turn never aborts the conversation.
			printError("%v", err)
		}
	}
}

// handleTurn records the user message, performs the completion and
// processes any suggested command
func (l *chatLoop) handleTurn(input string, inputs <-chan string) error {
	if err := l.history.AppendUser(input); err != nil {
		return err
	}
	if _, err := l.sessions.Increment(); err != nil {
		return err
	}

	window, err := l.history.ContextWindow(contextWindowSize)
	if err != nil {
		return err
	}
	messages := make([]internal.APIMessage, 0, len(window)+1)
	if prompt := l.config.ActiveRolePrompt(); prompt != "" {
		messages = append(messages, internal.APIMessage{Role: "system", Content: prompt})
	}
	messages = append(messages, window...)

	backend, err := l.providers.GetCurrent()
	if err != nil {
		return err
	}

	printInfo("Thinking...")
	response, err := backend.ChatCompletion(context.Background(), provider.ChatRequest{
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return err
	}

	if err := l.history.AppendAssistant(response.Content); err != nil {
		return err
	}
	if _, err := l.sessions.Increment(); err != nil {
		return err
	}

	fmt.Printf("\n%s (%s):\n%s\n\n",
		assistantStyle.Render("Assistant"), response.Model, response.Content)

	if l.suggester.ContainsSuggestion(response.Content) {
		if command := l.suggester.ExtractCommand(response.Content); command != "" {
			l.offerCommand(command, inputs)
		}
	}
	return nil
}

// offerCommand confirms and runs a suggested command, recording the
// outcome as a system message
func (l *chatLoop) offerCommand(command string, inputs <-chan string) {
	fmt.Println("💡 Suggested command:")
	fmt.Printf("    %s\n", command)
	if l.executor.IsDangerous(command) {
		printWarning("This command may be destructive; review it carefully")
	}
	if l.executor.RequiresPrivilege(command) {
		printInfo("This command requires elevated privileges")
	}
	if !l.askChoice(inputs, "Run this command? (y/N)", "n", "y", "yes") {
		return
	}

	result := l.executor.Execute(command)
	if result.Success() {
		printSuccess("Command succeeded")
		if result.Output != "" {
			fmt.Println(truncateForDisplay(result.Output))
		}
	} else {
		printError("Command failed (exit code %d)", result.ExitCode)
		if result.Error != "" {
			fmt.Println(truncateForDisplay(result.Error))
		}
	}

	outcome := "Command execution succeeded"
	if !result.Success() {
		outcome = "Command execution failed"
	}
	metadata := map[string]interface{}{
		"command":   result.Command,
		"exit_code": result.ExitCode,
		"output":    result.Output,
	}
	if err := l.history.AppendSystem(outcome, metadata); err != nil {
		printError("%v", err)
		return
	}
	if _, err := l.sessions.Increment(); err != nil {
		printError("%v", err)
	}
}

// handleAtLimit enforces the hard gate: no further turns are sent until
// the operator archives or clears. Returns true when the loop should
// re-evaluate, false to exit.
func (l *chatLoop) handleAtLimit(inputs <-chan string) bool {
	printError("Context ceiling reached (%d messages)", l.sessions.MaxMessages())
	fmt.Println("You must choose one of:")
	fmt.Println("  1. Archive this conversation and start a new session (recommended)")
	fmt.Println("  2. Clear history and continue")

	if l.askChoice(inputs, "Choice [1]", "1", "1") {
		l.archiveAndStartNew()
	} else {
		l.clearHistory()
	}
	fmt.Println()
	return true
}

// clearHistory drops the log and zeroes the counter so the gate lifts
func (l *chatLoop) clearHistory() {
	if err := l.history.Clear(); err != nil {
		printError("%v", err)
		return
	}
	if err := l.sessions.ResetCount(); err != nil {
		printError("%v", err)
		return
	}
	printSuccess("History cleared")
}

// handleWarning surfaces the advisory once per iteration
func (l *chatLoop) handleWarning(inputs <-chan string) {
	printWarning("Context limit approaching (%d/%d, %.0f%%)",
		l.sessions.MessageCount(), l.sessions.MaxMessages(), l.sessions.UsagePercent())
	fmt.Println("Suggested actions:")
	fmt.Println("  1. Archive this conversation and start a new session (recommended)")
	fmt.Println("  2. Continue anyway (may degrade response quality)")
	fmt.Println("  3. Clear history")

	choice := l.readChoice(inputs, "Choice [2]", "2")
	switch choice {
	case "1":
		l.archiveAndStartNew()
	case "3":
		l.clearHistory()
	}
	fmt.Println()
}

func (l *chatLoop) archiveAndStartNew() {
	archivePath, err := l.sessions.ArchiveSession()
	if err != nil {
		printError("Archive failed: %v", err)
		return
	}
	printSuccess("Conversation archived to %s", archivePath)
	l.startNewSession()
}

func (l *chatLoop) startNewSession() {
	session, err := l.sessions.NewSession()
	if err != nil {
		printError("%v", err)
		return
	}
	history, err := internal.NewHistoryLog(l.sessions.SessionsDir(), session.ID)
	if err != nil {
		printError("%v", err)
		return
	}
	l.history = history
	printSuccess("Switched to new session %s", session.ID)
}

func (l *chatLoop) confirmExit(inputs <-chan string, interrupts <-chan os.Signal) bool {
	fmt.Print("Really exit? (y/N): ")
	select {
	case answer := <-inputs:
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes"
	case <-interrupts:
		return true
	}
}

func (l *chatLoop) readChoice(inputs <-chan string, label, def string) string {
	fmt.Print(label + ": ")
	answer, ok := <-inputs
	if !ok {
		return def
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}

// askChoice reads an answer and reports whether it matches one of the
// accepted values (after defaulting)
func (l *chatLoop) askChoice(inputs <-chan string, label, def string, accepted ...string) bool {
	answer := strings.ToLower(l.readChoice(inputs, label, def))
	for _, a := range accepted {
		if answer == a {
			return true
		}
	}
	return false
}

// readLines pumps stdin lines into a channel so the loop can select
// between operator input and interrupts
func readLines() (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := stdin.ReadString('\n')
			if err != nil {
				errs <- err
				return
			}
			lines <- strings.TrimRight(line, "\n")
		}
	}()
	return lines, errs
}

func truncateForDisplay(s string) string {
	const limit = 1000
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n... (output truncated)"
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/iksnae/enai/internal"
	"github.com/spf13/cobra"
)

var sessionArchiveAutoNew bool

// sessionCmd groups session lifecycle subcommands
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage conversation sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		records := sessions.ListSessions()
		if len(records) == 0 {
			printWarning("No sessions yet")
			return nil
		}

		currentID := ""
		if sessions.HasCurrent() {
			if current, err := sessions.Current(); err == nil {
				currentID = current.ID
			}
		}

		fmt.Println(headerStyle.Render("📋 Sessions"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tROLE\tCREATED\tMESSAGES\tLAST ACTIVITY\t")
		for _, s := range records {
			marker := ""
			if s.ID == currentID {
				marker = successStyle.Render("✓ current")
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				idStyle.Render(s.ID),
				s.Role,
				dateStyle.Render(s.CreatedAt.Format("2006-01-02 15:04:05")),
				countStyle.Render(fmt.Sprintf("%d", s.MessageCount)),
				dateStyle.Render(s.LastActivity.Format("2006-01-02 15:04:05")),
				marker)
		}
		w.Flush()
		printInfo("\n%d session(s)", len(records))
		return nil
	},
}

var sessionSwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Switch to an existing session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		ok, err := sessions.SwitchSession(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return &internal.SessionNotFoundError{ID: args[0]}
		}
		printSuccess("Switched to session %s", args[0])
		return nil
	},
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats [id]",
	Short: "Show session statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		var target *internal.Session
		if len(args) == 1 {
			target = sessions.LoadSession(args[0])
			if target == nil {
				return &internal.SessionNotFoundError{ID: args[0]}
			}
		} else {
			target, err = sessions.Current()
			if err != nil {
				return err
			}
		}
		printSessionStats(sessions.SessionStats(target))
		return nil
	},
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a new session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		session, err := sessions.NewSession()
		if err != nil {
			return err
		}
		printSuccess("Created session %s", session.ID)
		return nil
	},
}

var sessionExportCmd = &cobra.Command{
	Use:   "export [output]",
	Short: "Export the current session as Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		current, err := sessions.Current()
		if err != nil {
			return err
		}

		var outputPath string
		if len(args) == 1 {
			outputPath = args[0]
		} else {
			timestamp := time.Now().Format("20060102_150405")
			outputPath = fmt.Sprintf("session_%s_%s.md", current.ID, timestamp)
		}

		history, err := internal.NewHistoryLog(sessions.SessionsDir(), current.ID)
		if err != nil {
			return err
		}
		if err := history.SaveMarkdown(outputPath); err != nil {
			return err
		}
		abs, _ := filepath.Abs(outputPath)
		printSuccess("Session exported to %s", abs)
		return nil
	},
}

var sessionArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the current session's transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		if !sessions.HasCurrent() {
			printWarning("No active session to archive")
			return nil
		}
		archivePath, err := sessions.ArchiveSession()
		if err != nil {
			return err
		}
		printSuccess("Session archived to %s", archivePath)

		if sessionArchiveAutoNew {
			session, err := sessions.NewSession()
			if err != nil {
				return err
			}
			printSuccess("Created session %s", session.ID)
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := newSessionManager()
		if err != nil {
			return err
		}
		if !confirm(fmt.Sprintf("Delete session %s and its history?", args[0]), false) {
			printInfo("Cancelled")
			return nil
		}
		deleted, err := sessions.DeleteSession(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return &internal.SessionNotFoundError{ID: args[0]}
		}
		printSuccess("Deleted session %s", args[0])
		return nil
	},
}

func newSessionManager() (*internal.SessionManager, error) {
	config, err := newConfigManager()
	if err != nil {
		return nil, err
	}
	return internal.NewSessionManager(config)
}

func printSessionStats(stats internal.Stats) {
	fmt.Println(headerStyle.Render("📊 Session statistics"))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "  Session ID\t%s\n", stats.SessionID)
	fmt.Fprintf(w, "  Role\t%s\n", stats.Role)
	fmt.Fprintf(w, "  Created\t%s\n", stats.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Last activity\t%s\n", stats.LastActivity.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Messages\t%d\n", stats.MessageCount)
	fmt.Fprintf(w, "  Ceiling\t%d\n", stats.MaxMessages)
	fmt.Fprintf(w, "  Remaining\t%d\n", stats.Remaining)
	fmt.Fprintf(w, "  Usage\t%.1f%%\n", stats.UsagePercent)
	w.Flush()
}

func init() {
	sessionArchiveCmd.Flags().BoolVar(&sessionArchiveAutoNew, "auto-new", false, "Create a new session after archiving")
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionSwitchCmd)
	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionNewCmd)
	sessionCmd.AddCommand(sessionExportCmd)
	sessionCmd.AddCommand(sessionArchiveCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}

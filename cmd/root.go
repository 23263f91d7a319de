package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/enai/internal"
	"github.com/iksnae/enai/internal/provider"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "enai",
	Short: "AI chat environment for the command line",
	Long: `An interactive AI conversation environment for the terminal.

enai talks to a local Ollama daemon or the OpenRouter API through one
uniform interface, tracks each conversation's context budget, and can
run shell commands the model suggests (after confirmation).

Features:
  • Interactive chat with context-window accounting and archival
  • Local (Ollama) and cloud (OpenRouter) backends with auto-detection
  • Free-model preference for metered backends
  • Named roles (system-prompt personas) per session
  • Durable session records and exportable transcripts

Quick Start:
  enai init                  # Set up configuration
  enai chat                  # Start a conversation
  enai session list          # List past sessions
  enai models list --free    # Show free models

For detailed usage, see: https://github.com/iksnae/enai`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// newConfigManager resolves profile paths and builds the config manager
func newConfigManager() (*internal.ConfigManager, error) {
	paths, err := internal.DetectPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve profile paths: %w", err)
	}
	return internal.NewConfigManager(paths), nil
}

// newProviderManager builds the provider manager over the current config
func newProviderManager() (*internal.ConfigManager, *provider.Manager, error) {
	config, err := newConfigManager()
	if err != nil {
		return nil, nil, err
	}
	return config, provider.NewManager(config), nil
}

package cmd

import (
	"fmt"

	"github.com/iksnae/enai/internal"
	"github.com/iksnae/enai/internal/provider"
	"github.com/spf13/cobra"
)

var initGlobal bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize enai configuration",
	Long: `Initialize the enai configuration for this workspace (default)
or globally with --global.

The init flow optionally validates an OpenRouter API key against the
live API, counts available free and paid models, and records the
default model strategy. A local Ollama daemon needs no setup beyond
being reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}

		scope := internal.ScopeWorkspace
		scopeName := "workspace"
		if initGlobal {
			scope = internal.ScopeGlobal
			scopeName = "global"
		}

		fmt.Println(headerStyle.Render("🎉 Welcome to enai"))
		printInfo("Initializing %s configuration...", scopeName)

		initial := internal.DefaultConfig()

		apiKey, err := promptLine("OpenRouter API key (leave empty to use Ollama only)", "")
		if err != nil {
			return err
		}
		if apiKey != "" {
			printInfo("Validating API key...")
			settings := config.Settings()
			client := provider.NewOpenRouterProvider(apiKey, settings, nil)
			if !client.IsAvailable() {
				printError("API key validation failed; check the key and try again")
				return nil
			}
			printSuccess("API key validated")

			printInfo("Fetching available models...")
			models, err := client.ListModels(false)
			if err != nil {
				printWarning("Could not fetch models: %v", err)
			}
			free, paid := 0, 0
			for _, m := range models {
				if m.Free {
					free++
				} else {
					paid++
				}
			}
			printInfo("Found %d free and %d paid models", free, paid)

			fmt.Println("\n🤖 Default model strategy:")
			fmt.Println("  1. Prefer free models (recommended)")
			fmt.Println("  2. Prefer free models, fall back to paid")
			choice, err := promptLine("Choice", "1")
			if err != nil {
				return err
			}
			initial[internal.KeyOpenRouterAPIKey] = apiKey
			initial[internal.KeyPreferFreeModels] = true
			initial[internal.KeyFallbackToPaid] = choice == "2"
			if best := client.SelectBestModel(true); best != "" {
				initial[internal.KeyDefaultModel] = best
				printSuccess("Default model: %s", best)
			}
			// With a working key, let auto-detection pick the backend.
			delete(initial, internal.KeyPreferredProvider)
		}

		if err := config.InitConfig(scope, initial); err != nil {
			return err
		}
		printSuccess("%s configuration initialized", scopeName)
		printInfo("Run 'enai chat' to start a conversation")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "Initialize the global configuration")
	rootCmd.AddCommand(initCmd)
}

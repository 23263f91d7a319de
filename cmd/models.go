package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/iksnae/enai/internal/provider"
	"github.com/spf13/cobra"
)

var (
	modelsFree     bool
	modelsProvider string
	modelsRefresh  bool
)

// modelsCmd groups model catalog subcommands
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage model catalogs",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models",
	Long: `List the models offered by a backend.

Without --provider the currently selected backend is queried. Catalogs
from metered backends are cached; --refresh forces a live fetch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, providers, err := newProviderManager()
		if err != nil {
			return err
		}
		defer providers.Close()

		var backend provider.Provider
		if modelsProvider != "" {
			backend = providers.Get(modelsProvider)
			if backend == nil {
				printError("Unknown provider: %s", modelsProvider)
				return nil
			}
		} else {
			backend, err = providers.GetCurrent()
			if err != nil {
				printError("%v", err)
				return nil
			}
		}

		printInfo("Fetching models from %s...", backend.Name())
		models, err := backend.ListModels(modelsRefresh)
		if err != nil {
			printError("Failed to list models: %v", err)
			return nil
		}
		if modelsFree {
			filtered := models[:0]
			for _, m := range models {
				if m.Free {
					filtered = append(filtered, m)
				}
			}
			models = filtered
		}
		if len(models) == 0 {
			printWarning("No models available")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("🧠 Models (%s)", backend.Name())))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tCONTEXT\tTIER")
		for _, m := range models {
			tier := "paid"
			if m.Free {
				tier = "free"
			}
			context := "?"
			if m.ContextLength > 0 {
				context = fmt.Sprintf("%d", m.ContextLength)
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", m.ID, context, tier)
		}
		w.Flush()
		printInfo("\n%d model(s)", len(models))
		return nil
	},
}

func init() {
	modelsListCmd.Flags().BoolVar(&modelsFree, "free", false, "Show only free models")
	modelsListCmd.Flags().StringVar(&modelsProvider, "provider", "", "Query a specific provider")
	modelsListCmd.Flags().BoolVar(&modelsRefresh, "refresh", false, "Bypass the catalog cache")
	modelsCmd.AddCommand(modelsListCmd)
	rootCmd.AddCommand(modelsCmd)
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/iksnae/enai/internal"
	"github.com/spf13/cobra"
)

// providerCmd groups provider management subcommands
var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage LLM providers",
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all providers and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, providers, err := newProviderManager()
		if err != nil {
			return err
		}
		defer providers.Close()

		preferred := config.GetString(internal.KeyPreferredProvider, "")
		statuses := providers.ListAll()
		fmt.Println(headerStyle.Render("🔌 Providers"))
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tAVAILABLE\tCONFIG\tDEFAULT MODEL\t")
		for _, name := range providers.Names() {
			status := statuses[name]
			marker := ""
			if name == preferred {
				marker = "← preferred"
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				name, yesNo(status.Available), yesNo(status.ConfigValid),
				orDash(status.DefaultModel), marker)
		}
		w.Flush()
		return nil
	},
}

var providerStatusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "Show one provider's status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, providers, err := newProviderManager()
		if err != nil {
			return err
		}
		defer providers.Close()

		status := providers.StatusOf(args[0])
		if !status.Exists {
			printError("Unknown provider: %s", args[0])
			return nil
		}
		fmt.Println(headerStyle.Render("🔌 " + args[0]))
		fmt.Printf("  Available:      %s\n", yesNo(status.Available))
		fmt.Printf("  Config valid:   %s\n", yesNo(status.ConfigValid))
		fmt.Printf("  Default model:  %s\n", orDash(status.DefaultModel))
		return nil
	},
}

var providerSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch the preferred provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, providers, err := newProviderManager()
		if err != nil {
			return err
		}
		defer providers.Close()

		if err := providers.Switch(args[0]); err != nil {
			printError("%v", err)
			return nil
		}
		printSuccess("Switched preferred provider to %s", args[0])
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return successStyle.Render("yes")
	}
	return errorStyle.Render("no")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	providerCmd.AddCommand(providerListCmd)
	providerCmd.AddCommand(providerStatusCmd)
	providerCmd.AddCommand(providerSwitchCmd)
	rootCmd.AddCommand(providerCmd)
}

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/iksnae/enai/internal"
	"github.com/spf13/cobra"
)

var configGlobal bool

// configCmd groups the configuration subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Get, set and list configuration values.

Configuration has two layers: workspace (./.enai/config.yaml) and
global (~/.enai/config.yaml). Reads check the workspace layer first;
writes target the workspace unless --global is given.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		value, ok := config.Get(args[0])
		if !ok {
			printError("No such config key: %s", args[0])
			return nil
		}
		fmt.Printf("%s = %v\n", args[0], value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		scope := internal.ScopeWorkspace
		scopeName := "workspace"
		if configGlobal {
			scope = internal.ScopeGlobal
			scopeName = "global"
		}
		value := coerceValue(args[1])
		if err := config.Set(args[0], value, scope); err != nil {
			return err
		}
		printSuccess("Set %s config: %s = %v", scopeName, args[0], value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		workspace, global := config.ListAll()
		if len(workspace) == 0 && len(global) == 0 {
			printWarning("No configuration found; run 'enai init' first")
			return nil
		}
		if len(workspace) > 0 {
			printConfigTable("workspace", workspace)
		}
		if len(global) > 0 {
			printConfigTable("global", global)
		}
		return nil
	},
}

func printConfigTable(scope string, values map[string]interface{}) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("⚙ %s configuration", scope)))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, key := range internal.SortedKeys(values) {
		value := values[key]
		if key == internal.KeyOpenRouterAPIKey {
			value = maskSecret(fmt.Sprintf("%v", value))
		}
		fmt.Fprintf(w, "  %s\t%v\n", key, value)
	}
	w.Flush()
	fmt.Println()
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// coerceValue turns CLI strings into booleans and numbers where possible
func coerceValue(s string) interface{} {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func init() {
	configSetCmd.Flags().BoolVar(&configGlobal, "global", false, "Write to the global configuration")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)
}

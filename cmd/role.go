package cmd

import (
	"fmt"

	"github.com/iksnae/enai/internal"
	"github.com/spf13/cobra"
)

var roleGlobal bool

// roleCmd groups persona management subcommands
var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Manage roles (system-prompt personas)",
	Long: `Manage named system-prompt personas.

Built-in roles (default, shell, code) are always available. Custom
roles are stored in configuration and may shadow built-ins by name.
The active role's system prompt is prepended to every model request
and recorded on new sessions.`,
}

var roleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		active := config.ActiveRoleName()
		fmt.Println(headerStyle.Render("🎭 Roles"))
		for _, name := range config.RoleNames() {
			marker := " "
			if name == active {
				marker = successStyle.Render("✓")
			}
			fmt.Printf("  %s %s\n", marker, name)
		}
		return nil
	},
}

var roleShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a role's system prompt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		role, ok := config.Roles()[args[0]]
		if !ok {
			printError("Unknown role: %s", args[0])
			return nil
		}
		fmt.Println(headerStyle.Render("🎭 " + args[0]))
		fmt.Println(role.SystemPrompt)
		return nil
	},
}

var roleSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Set the active role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		if _, ok := config.Roles()[args[0]]; !ok {
			printError("Unknown role: %s", args[0])
			return nil
		}
		scope := writeScope(config, roleGlobal)
		if err := config.Set(internal.KeyActiveRole, args[0], scope); err != nil {
			return err
		}
		printSuccess("Active role set to %s", args[0])
		return nil
	},
}

var roleAddCmd = &cobra.Command{
	Use:   "add <name> <system-prompt>",
	Short: "Add a custom role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		scope := writeScope(config, roleGlobal)
		if err := config.AddRole(args[0], args[1], scope); err != nil {
			return err
		}
		printSuccess("Added role %s", args[0])
		return nil
	},
}

var roleDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a custom role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		scope := writeScope(config, roleGlobal)
		deleted, err := config.DeleteRole(args[0], scope)
		if err != nil {
			return err
		}
		if !deleted {
			printError("Cannot delete %s (built-in or not found)", args[0])
			return nil
		}
		printSuccess("Deleted role %s", args[0])
		return nil
	},
}

// writeScope picks the scope config writes should target
func writeScope(config *internal.ConfigManager, global bool) internal.ConfigScope {
	if global || !config.IsWorkspaceMode() {
		return internal.ScopeGlobal
	}
	return internal.ScopeWorkspace
}

func init() {
	roleCmd.PersistentFlags().BoolVar(&roleGlobal, "global", false, "Write to the global configuration")
	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleShowCmd)
	roleCmd.AddCommand(roleSetCmd)
	roleCmd.AddCommand(roleAddCmd)
	roleCmd.AddCommand(roleDeleteCmd)
	rootCmd.AddCommand(roleCmd)
}

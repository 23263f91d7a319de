package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show environment information",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := newConfigManager()
		if err != nil {
			return err
		}
		fmt.Println(headerStyle.Render("ℹ Environment"))
		mode := "global"
		if config.IsWorkspaceMode() {
			mode = "workspace"
		}
		fmt.Printf("  Platform:      %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Config mode:   %s\n", mode)
		fmt.Printf("  Sessions dir:  %s\n", config.Paths().SessionsDir())
		fmt.Printf("  Archives dir:  %s\n", config.Paths().ArchivesDir())
		fmt.Printf("  Active role:   %s\n", config.ActiveRoleName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opscheck/internal/cli/commands"
)

var rootCmd = &cobra.Command{
	Use:   "opscheck",
	Short: "opscheck CLI - daily IT health check ledger",
	Long: `opscheck CLI is a command-line client for the opscheck server.
It submits daily infrastructure health checks, manages day ledgers,
and generates summary reports.`,
}

func init() {
	// Add commands
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewLedgerCommand())
	rootCmd.AddCommand(commands.NewReportCommand())
	rootCmd.AddCommand(commands.NewMaintenanceCommand())
	rootCmd.AddCommand(commands.NewEnvCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

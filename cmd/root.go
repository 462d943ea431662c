package cmd

import (
	"fmt"
	"os"

	"netsync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// configPath is the directory holding the .env file.
var configPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "netsync",
	Short: "Network device reconciliation",
	Long: `netsync reconciles collected network device state with the system of record.
It creates, updates and optionally deletes devices, interfaces, addresses,
VLANs, inventory, MAC entries and cables so the inventory matches the network.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format with ISO8601 timestamps for CLI users
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory containing the .env file")
}

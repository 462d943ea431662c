package cmd

import (
	"fmt"

	"netsync/core/database"
	"netsync/core/remote"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the system-of-record tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configPath)
		if err != nil {
			return err
		}
		defer a.close()

		db, err := database.Connect(a.cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db

		if err := remote.NewGormStore(db).Migrate(cmd.Context()); err != nil {
			return err
		}
		table := remote.ObjectRecord{}.TableName()
		if err := database.VerifyColumns(db, table, remote.ObjectColumns); err != nil {
			return err
		}
		a.log.Info("Migration complete", zap.String("table", table))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"issuesolver/internal/app"
	"issuesolver/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}
		db, err := app.OpenDatabase(cfg, logger)
		if err != nil {
			return err
		}
		if err := database.Close(db); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", cfg.Database.Path)
		return nil
	},
}

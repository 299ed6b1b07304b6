package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shawgichan/lucid/internal/db"
	applogger "github.com/shawgichan/lucid/internal/logger"
	"github.com/shawgichan/lucid/internal/util"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the store schema and exit",
	Long: `migrate brings the configured store up to date: goose migrations for
postgres, the unique username index for mongo. The memory store has no schema.`,
	RunE: runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of lucid",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lucid %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := applogger.New(config.Environment)

	if config.StoreDriver == util.StoreDriverMemory {
		logger.Info("Memory store has nothing to migrate")
		return nil
	}

	_, closeStore, err := db.Open(cmd.Context(), config)
	if err != nil {
		return err
	}
	closeStore()

	logger.Info("Store schema is up to date", "driver", config.StoreDriver)
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shawgichan/lucid/internal/util"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "lucid",
	Short: "Search, summarize and bookmark research papers",
	Long: `lucid is an HTTP service for discovering research papers. Users log in,
search Semantic Scholar with the shared API key (2 free searches) or their own,
summarize abstracts and keep bookmarks and a search history.

Running lucid without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().String("config-path", ".", "directory containing app.env")
}

// loadConfig reads app.env into the environment and then builds the
// validated config from it.
func loadConfig(cmd *cobra.Command) (util.Config, error) {
	configPath, _ := cmd.Flags().GetString("config-path")

	if err := godotenv.Load(filepath.Join(configPath, "app.env")); err != nil && !os.IsNotExist(err) {
		return util.Config{}, fmt.Errorf("loading app.env: %w", err)
	}

	config, err := util.LoadConfig(configPath)
	if err != nil {
		return util.Config{}, fmt.Errorf("cannot load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return util.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/juanre/llmbridge/pkg/config"
	"github.com/juanre/llmbridge/pkg/registry"
)

var version = "dev"

func main() {
	// Optional .env file; absence is not an error.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "llmbridge",
		Short:   "llmbridge — model registry and API call ledger",
		Version: version,
	}

	root.AddCommand(
		newSetupCmd(),
		newResetCmd(),
		newStatusCmd(),
		newModelsCmd(),
		newStatsCmd(),
		newCallsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given, otherwise builds config from
// the environment. The --db flag overrides the connection string either way.
func loadConfig(configPath, dbOverride string) (*config.Config, error) {
	cfg := config.FromEnv()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dbOverride != "" {
		cfg.DatabaseURL = dbOverride
	}

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return cfg, nil
}

// openDB initializes a registry façade for the configured backend.
func openDB(cmd *cobra.Command, cfg *config.Config) (*registry.DB, error) {
	db := registry.New(cfg.DatabaseURL)
	if err := db.Initialize(cmd.Context()); err != nil {
		return nil, err
	}
	return db, nil
}

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newSetupCmd() *cobra.Command {
	var (
		configPath string
		dbURL      string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the database schema and seed the default model registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, dbURL)
			if err != nil {
				return err
			}

			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Setup(cmd.Context()); err != nil {
				return err
			}

			models, err := db.ListModels(cmd.Context(), "", true)
			if err != nil {
				return err
			}
			fmt.Printf("Database ready. %d models in registry.\n", len(models))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dbURL, "db", "", "database connection string")
	return cmd
}

func newResetCmd() *cobra.Command {
	var (
		configPath string
		dbURL      string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the schema, deleting all data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, dbURL)
			if err != nil {
				return err
			}

			if !yes {
				fmt.Print("This will DELETE all registry and ledger data. Continue? (yes/no): ")
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				if strings.TrimSpace(line) != "yes" {
					fmt.Println("Aborted.")
					return nil
				}
			}

			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Database reset complete.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dbURL, "db", "", "database connection string")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var (
		configPath string
		dbURL      string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check database health and registry contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath, dbURL)
			if err != nil {
				return err
			}

			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.HealthCheck(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Health: ok")

			models, err := db.ListModels(cmd.Context(), "", true)
			if err != nil {
				return err
			}

			byProvider := map[string]int{}
			for _, m := range models {
				byProvider[m.Provider]++
			}
			fmt.Printf("Active models: %d\n", len(models))
			for provider, count := range byProvider {
				fmt.Printf("  %s: %d\n", provider, count)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dbURL, "db", "", "database connection string")
	return cmd
}

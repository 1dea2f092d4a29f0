package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/juanre/llmbridge/pkg/registry"
)

func newStatsCmd() *cobra.Command {
	var (
		configPath string
		dbURL      string
		origin     string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics over a trailing window",
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

			stats, err := db.UsageStats(cmd.Context(), origin, days)
			if err != nil {
				return err
			}

			fmt.Printf("Calls:        %d\n", stats.TotalCalls)
			fmt.Printf("Tokens:       %d\n", stats.TotalTokens)
			fmt.Printf("Cost:         $%s\n", stats.TotalCost.StringFixed(4))
			fmt.Printf("Avg cost:     $%s\n", stats.AvgCostPerCall.StringFixed(6))
			fmt.Printf("Success rate: %s%%\n", stats.SuccessRate.Mul(hundred).StringFixed(1))

			if len(stats.Providers) > 0 {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "PROVIDER\tCALLS\tTOKENS\tCOST")
				for provider, u := range stats.Providers {
					fmt.Fprintf(w, "%s\t%d\t%d\t$%s\n",
						provider, u.Calls, u.Tokens, u.Cost.StringFixed(4))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dbURL, "db", "", "database connection string")
	cmd.Flags().StringVarP(&origin, "origin", "o", "", "filter by origin")
	cmd.Flags().IntVarP(&days, "days", "d", registry.DefaultStatsDays, "trailing window in days")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var hundred = decimal.NewFromInt(100)

func newCallsCmd() *cobra.Command {
	var (
		configPath string
		dbURL      string
		limit      int
		offset     int
	)

	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Show recent API calls from the ledger",
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

			calls, err := db.RecentCalls(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				fmt.Println("No calls found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tORIGIN\tPROVIDER\tMODEL\tTOKENS\tCOST\tERROR")
			for _, c := range calls {
				errCol := "-"
				if c.Failed() {
					errCol = c.ErrorType
					if errCol == "" {
						errCol = "error"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t$%s\t%s\n",
					c.CalledAt.Format("2006-01-02T15:04:05"), c.Origin,
					c.Provider, c.ModelName, c.TotalTokens,
					c.EstimatedCost.StringFixed(4), errCol)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dbURL, "db", "", "database connection string")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum calls to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "pagination offset")
	return cmd
}

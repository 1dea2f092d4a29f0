package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	var (
		configPath string
		dbURL      string
		provider   string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered models",
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

			models, err := db.ListModels(cmd.Context(), provider, !all)
			if err != nil {
				return err
			}
			if len(models) == 0 {
				fmt.Println("No models found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tCONTEXT\tIN $/M\tOUT $/M\tACTIVE")
			for _, m := range models {
				in, out := "-", "-"
				if m.PriceInputPerMillion != nil {
					in = m.PriceInputPerMillion.StringFixed(2)
				}
				if m.PriceOutputPerMillion != nil {
					out = m.PriceOutputPerMillion.StringFixed(2)
				}
				active := "yes"
				if !m.Active() {
					active = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					m.Provider, m.ModelName, m.MaxContext, in, out, active)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&dbURL, "db", "", "database connection string")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "filter by provider")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include deactivated models")
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		res, err := a.refresher.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"message":           "Refresh complete",
			"total_countries":   res.TotalCountries,
			"last_refreshed_at": res.LastRefreshedAt,
			"stored":            res.Stored,
			"skipped":           res.Skipped,
		})
	},
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
)

var (
	envPath string
	cfg     *config.Config

	rootCmd = &cobra.Command{
		Use:          "countries-api",
		Short:        "Country currency and exchange API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(envPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = c
			logger.Init(cfg.LogLevel, cfg.LogFormat)
			return nil
		},
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "path to an optional .env file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(migrateCmd)
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create collections and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client, err := db.ConnectMongoDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer func() {
			if err := db.DisconnectMongoDB(context.Background(), client); err != nil {
				logger.Error("Error disconnecting MongoDB: %v", err)
			}
		}()

		if err := db.RunMigrations(ctx, client.Database(cfg.MongoDatabase), db.Migrations()); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Migration complete")
		return nil
	},
}

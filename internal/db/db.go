package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db/migrations"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

const migrationCollectionName = "migrations_history"

func ConnectMongoDB(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.MongoURI)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err = client.Ping(ctxTimeout, nil)
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB!")
	return client, nil
}

func DisconnectMongoDB(ctx context.Context, client *mongo.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return err
	}
	logger.Info("Disconnected from MongoDB.")
	return nil
}

// Migrations lists the schema migrations in the order they are applied.
func Migrations() []models.Migration {
	return []models.Migration{
		{Name: "countries_indexes", Func: migrations.CreateCountryIndexes},
		{Name: "refresh_status_collection", Func: migrations.CreateRefreshStatusCollection},
	}
}

// RunMigrations applies every migration not yet recorded in the history
// collection.
func RunMigrations(ctx context.Context, db *mongo.Database, list []models.Migration) error {
	coll := db.Collection(migrationCollectionName)

	for _, m := range list {
		var result struct{ Name string }
		err := coll.FindOne(ctx, bson.M{"name": m.Name}).Decode(&result)
		if err == mongo.ErrNoDocuments {
			logger.Info("Running migration: %s", m.Name)
			if err := m.Func(ctx, db); err != nil {
				logger.Error("Error applying migration %s: %v", m.Name, err)
				return err
			}
			_, err = coll.InsertOne(ctx, bson.M{"name": m.Name, "applied_at": time.Now().UTC()})
			if err != nil {
				return err
			}
			logger.Info("Migration %s applied successfully.", m.Name)
		} else if err != nil {
			return err
		} else {
			logger.Info("Migration %s already applied, skipping.", m.Name)
		}
	}

	return nil
}

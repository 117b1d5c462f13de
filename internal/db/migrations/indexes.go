package migrations

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CountriesCollection     = "countries"
	RefreshStatusCollection = "refresh_status"
)

// CaseInsensitive compares strings ignoring case but not diacritics. Queries
// must use the same collation as the name index for it to be used.
var CaseInsensitive = &options.Collation{Locale: "en", Strength: 2}

func createCollectionIfNotExists(ctx context.Context, db *mongo.Database, name string, opts ...*options.CreateCollectionOptions) error {
	if err := db.CreateCollection(ctx, name, opts...); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			if cmdErr.Code != 48 { // 48 = NamespaceExists
				return fmt.Errorf("failed to create collection %s: %w", name, err)
			}
		} else {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

// CreateCountryIndexes creates the countries collection with a
// case-insensitive default collation, a unique index on name and the
// indexes backing the list filters.
func CreateCountryIndexes(ctx context.Context, db *mongo.Database) error {
	err := createCollectionIfNotExists(ctx, db, CountriesCollection,
		options.CreateCollection().SetCollation(CaseInsensitive))
	if err != nil {
		return err
	}

	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("name_ci_unique").SetUnique(true).SetCollation(CaseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "region", Value: 1}},
			Options: options.Index().SetName("region_ci").SetCollation(CaseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "currency_code", Value: 1}},
			Options: options.Index().SetName("currency_code_ci").SetCollation(CaseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "estimated_gdp", Value: -1}},
			Options: options.Index().SetName("estimated_gdp_desc"),
		},
	}

	if _, err := db.Collection(CountriesCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create country indexes: %w", err)
	}
	return nil
}

func CreateRefreshStatusCollection(ctx context.Context, db *mongo.Database) error {
	return createCollectionIfNotExists(ctx, db, RefreshStatusCollection)
}

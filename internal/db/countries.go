package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db/migrations"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

var (
	ErrNotFound      = errors.New("country not found")
	ErrEmptyUpdate   = errors.New("update contains no fields")
	ErrDuplicateName = errors.New("a country with this name already exists")
)

// CountryStore persists country records. Every name comparison runs under
// a case-insensitive collation, so "france" and "FRANCE" address the same
// document while "Fra" addresses none.
type CountryStore struct {
	coll *mongo.Collection
}

func NewCountryStore(db *mongo.Database) *CountryStore {
	return &CountryStore{coll: db.Collection(migrations.CountriesCollection)}
}

func nameFilter(name string) bson.M {
	return bson.M{"name": name}
}

// UpsertMany replaces or inserts each country by name in a single unordered
// bulk write.
func (s *CountryStore) UpsertMany(ctx context.Context, countries []models.Country) error {
	if len(countries) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(countries))
	for _, c := range countries {
		c.ID = primitive.NilObjectID
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(nameFilter(c.Name)).
			SetUpdate(bson.M{"$set": c}).
			SetUpsert(true).
			SetCollation(migrations.CaseInsensitive))
	}

	if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk upsert %d countries: %w", len(countries), err)
	}
	return nil
}

// List returns the countries matching the filter. Ties on the sort field
// are broken by name.
func (s *CountryStore) List(ctx context.Context, filter models.CountryFilter) ([]models.Country, error) {
	query := bson.M{}
	if filter.Region != "" {
		query["region"] = filter.Region
	}
	if filter.Currency != "" {
		query["currency_code"] = filter.Currency
	}

	field := filter.SortField
	if field == "" || !models.IsSortable(field) {
		field = models.SortName
	}
	dir := 1
	if filter.Descending {
		dir = -1
	}
	sort := bson.D{{Key: field, Value: dir}}
	if field != models.SortName {
		sort = append(sort, bson.E{Key: models.SortName, Value: 1})
	}

	opts := options.Find().SetSort(sort).SetCollation(migrations.CaseInsensitive)
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	countries := []models.Country{}
	if err := cursor.All(ctx, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

func (s *CountryStore) FindByName(ctx context.Context, name string) (*models.Country, error) {
	var c models.Country
	opts := options.FindOne().SetCollation(migrations.CaseInsensitive)
	err := s.coll.FindOne(ctx, nameFilter(name), opts).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Update applies a partial $set and returns the updated record. fields must
// already be normalized.
func (s *CountryStore) Update(ctx context.Context, name string, fields map[string]interface{}) (*models.Country, error) {
	if len(fields) == 0 {
		return nil, ErrEmptyUpdate
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetCollation(migrations.CaseInsensitive)

	var c models.Country
	err := s.coll.FindOneAndUpdate(ctx, nameFilter(name), bson.M{"$set": fields}, opts).Decode(&c)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicateName
	case err != nil:
		return nil, err
	}
	return &c, nil
}

func (s *CountryStore) Delete(ctx context.Context, name string) error {
	opts := options.Delete().SetCollation(migrations.CaseInsensitive)
	res, err := s.coll.DeleteOne(ctx, nameFilter(name), opts)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CountryStore) Count(ctx context.Context) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{})
}

// TopByGDP returns up to n countries with the highest estimated GDP,
// skipping those without one.
func (s *CountryStore) TopByGDP(ctx context.Context, n int) ([]models.Country, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: models.SortEstimatedGDP, Value: -1}}).
		SetLimit(int64(n))

	cursor, err := s.coll.Find(ctx, bson.M{models.SortEstimatedGDP: bson.M{"$ne": nil}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var countries []models.Country
	if err := cursor.All(ctx, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

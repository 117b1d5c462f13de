package db_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/config"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

// Helper: Start temporary MongoDB container
func setupMongoContainer(ctx context.Context) (tc.Container, string, error) {
	req := tc.ContainerRequest{
		Image:        "mongo:7.0",
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": "admin",
			"MONGO_INITDB_ROOT_PASSWORD": "password",
		},
		WaitingFor: wait.ForListeningPort("27017/tcp"),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, "", err
	}

	port, err := container.MappedPort(ctx, nat.Port("27017"))
	if err != nil {
		return nil, "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, "", err
	}

	mongoURI := fmt.Sprintf("mongodb://admin:password@%s:%s/?authSource=admin", host, port.Port())
	return container, mongoURI, nil
}

// setupDatabase starts MongoDB, applies migrations and returns a fresh
// database named after the test.
func setupDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}
	ctx := context.Background()

	container, mongoURI, err := setupMongoContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	client, err := db.ConnectMongoDB(ctx, &config.Config{MongoURI: mongoURI})
	if err != nil {
		t.Fatalf("ConnectMongoDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.DisconnectMongoDB(ctx, client) })

	database := client.Database("countries_test")
	if err := db.RunMigrations(ctx, database, db.Migrations()); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return database
}

func str(s string) *string { return &s }

func num(f float64) *float64 { return &f }

func seed(t *testing.T, store *db.CountryStore, at time.Time) {
	t.Helper()
	countries := []models.Country{
		{Name: "France", Region: str("Europe"), Population: 67000000, CurrencyCode: str("EUR"), ExchangeRate: num(0.92), EstimatedGDP: num(1.1e11), LastRefreshedAt: at},
		{Name: "Germany", Region: str("Europe"), Population: 83000000, CurrencyCode: str("EUR"), ExchangeRate: num(0.92), EstimatedGDP: num(1.4e11), LastRefreshedAt: at},
		{Name: "Japan", Region: str("Asia"), Population: 125000000, CurrencyCode: str("JPY"), ExchangeRate: num(150), EstimatedGDP: num(1.2e9), LastRefreshedAt: at},
		{Name: "India", Region: str("Asia"), Population: 1400000000, CurrencyCode: str("INR"), ExchangeRate: num(83), EstimatedGDP: num(2.5e10), LastRefreshedAt: at},
		{Name: "Antarctica", Region: str("Polar"), Population: 1000, LastRefreshedAt: at},
		{Name: "St. Kitts (Test)+", Region: str("Americas"), Population: 47000, CurrencyCode: str("XCD"), ExchangeRate: num(2.7), EstimatedGDP: num(2.6e7), LastRefreshedAt: at},
	}
	require.NoError(t, store.UpsertMany(context.Background(), countries))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	database := setupDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.RunMigrations(ctx, database, db.Migrations()))

	n, err := database.Collection("migrations_history").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(db.Migrations())), n)
}

func TestCountryStore(t *testing.T) {
	database := setupDatabase(t)
	store := db.NewCountryStore(database)
	ctx := context.Background()
	at := time.Date(2025, 10, 22, 7, 30, 0, 0, time.UTC)
	seed(t, store, at)

	t.Run("upsert matches names case-insensitively", func(t *testing.T) {
		err := store.UpsertMany(ctx, []models.Country{
			{Name: "FRANCE", Region: str("Europe"), Population: 68000000, LastRefreshedAt: at},
		})
		require.NoError(t, err)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(6), n)

		c, err := store.FindByName(ctx, "france")
		require.NoError(t, err)
		assert.Equal(t, "FRANCE", c.Name)
		assert.Equal(t, 68000000.0, c.Population)
		assert.Nil(t, c.CurrencyCode, "refresh replaces every field")
		assert.Nil(t, c.EstimatedGDP)
	})

	t.Run("find by name", func(t *testing.T) {
		tests := []struct {
			lookup  string
			want    string
			wantErr error
		}{
			{"japan", "Japan", nil},
			{"JAPAN", "Japan", nil},
			{"Jap", "", db.ErrNotFound},
			{"J.pan", "", db.ErrNotFound},
			{"st. kitts (test)+", "St. Kitts (Test)+", nil},
			{".*", "", db.ErrNotFound},
		}
		for _, tt := range tests {
			c, err := store.FindByName(ctx, tt.lookup)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr, tt.lookup)
				continue
			}
			require.NoError(t, err, tt.lookup)
			assert.Equal(t, tt.want, c.Name)
			assert.Equal(t, at, c.LastRefreshedAt.UTC())
		}
	})

	t.Run("list filters and sorting", func(t *testing.T) {
		asia, err := store.List(ctx, models.CountryFilter{Region: "asia"})
		require.NoError(t, err)
		require.Len(t, asia, 2)
		assert.Equal(t, "India", asia[0].Name)
		assert.Equal(t, "Japan", asia[1].Name)

		eur, err := store.List(ctx, models.CountryFilter{Currency: "eur"})
		require.NoError(t, err)
		require.Len(t, eur, 1, "France lost its currency in the previous upsert")
		assert.Equal(t, "Germany", eur[0].Name)

		byGDP, err := store.List(ctx, models.CountryFilter{SortField: models.SortEstimatedGDP, Descending: true})
		require.NoError(t, err)
		require.Len(t, byGDP, 6)
		assert.Equal(t, "Germany", byGDP[0].Name)

		byPop, err := store.List(ctx, models.CountryFilter{SortField: models.SortPopulation})
		require.NoError(t, err)
		assert.Equal(t, "Antarctica", byPop[0].Name)

		none, err := store.List(ctx, models.CountryFilter{Region: "Atlantis"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("top by gdp skips null", func(t *testing.T) {
		top, err := store.TopByGDP(ctx, 5)
		require.NoError(t, err)
		require.Len(t, top, 4)
		assert.Equal(t, "Germany", top[0].Name)
		assert.Equal(t, "India", top[1].Name)
		for _, c := range top {
			assert.NotNil(t, c.EstimatedGDP)
		}

		top2, err := store.TopByGDP(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, top2, 2)
	})

	t.Run("update", func(t *testing.T) {
		c, err := store.Update(ctx, "japan", map[string]interface{}{"capital": "Tokyo", "population": 124000000.0})
		require.NoError(t, err)
		assert.Equal(t, "Japan", c.Name)
		assert.Equal(t, "Tokyo", *c.Capital)
		assert.Equal(t, 124000000.0, c.Population)
		assert.NotNil(t, c.EstimatedGDP, "partial update leaves other fields alone")

		_, err = store.Update(ctx, "Atlantis", map[string]interface{}{"capital": "Poseidonia"})
		assert.ErrorIs(t, err, db.ErrNotFound)

		_, err = store.Update(ctx, "Japan", map[string]interface{}{})
		assert.ErrorIs(t, err, db.ErrEmptyUpdate)

		_, err = store.Update(ctx, "Japan", map[string]interface{}{"name": "india"})
		assert.ErrorIs(t, err, db.ErrDuplicateName)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "ANTARCTICA"))
		assert.ErrorIs(t, store.Delete(ctx, "Antarctica"), db.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, "Ind"), db.ErrNotFound)

		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})
}

func TestStatusStore(t *testing.T) {
	database := setupDatabase(t)
	store := db.NewStatusStore(database)
	ctx := context.Background()

	status, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, status, "never refreshed")

	first := time.Date(2025, 10, 22, 7, 30, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	require.NoError(t, store.Set(ctx, first))
	require.NoError(t, store.Set(ctx, second))

	status, err = store.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, second, status.LastRefreshedAt.UTC())

	n, err := database.Collection("refresh_status").CountDocuments(ctx, bson.M{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "status is a singleton")
}

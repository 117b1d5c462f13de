package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

type Migration struct {
	Name string
	Func func(ctx context.Context, db *mongo.Database) error
}

// RefreshStatus is the singleton document tracking the last successful refresh.
type RefreshStatus struct {
	ID              string    `bson:"_id" json:"-"`
	LastRefreshedAt time.Time `bson:"last_refreshed_at" json:"last_refreshed_at"`
}

// GDPEntry is one bar of the summary chart.
type GDPEntry struct {
	Name         string  `json:"name"`
	EstimatedGDP float64 `json:"estimated_gdp"`
}

// Summary is the aggregate handed to the summary renderer after a refresh.
type Summary struct {
	Total        int64      `json:"total"`
	TopCountries []GDPEntry `json:"topCountries"`
	Timestamp    time.Time  `json:"timestamp"`
}

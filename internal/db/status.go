package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/db/migrations"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

const refreshStatusID = "refresh"

// StatusStore keeps the single refresh status document.
type StatusStore struct {
	coll *mongo.Collection
}

func NewStatusStore(db *mongo.Database) *StatusStore {
	return &StatusStore{coll: db.Collection(migrations.RefreshStatusCollection)}
}

func (s *StatusStore) Set(ctx context.Context, refreshedAt time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": refreshStatusID},
		bson.M{"$set": bson.M{"last_refreshed_at": refreshedAt.UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// Get returns nil without error when no refresh has completed yet.
func (s *StatusStore) Get(ctx context.Context) (*models.RefreshStatus, error) {
	var status models.RefreshStatus
	err := s.coll.FindOne(ctx, bson.M{"_id": refreshStatusID}).Decode(&status)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

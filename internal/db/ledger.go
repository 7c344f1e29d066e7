package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoLedger records notification de-duplication keys in a collection
// keyed by _id. It is used when no Redis instance is configured.
type MongoLedger struct {
	Collection *mongo.Collection
}

// EnsureIndexes adds a TTL index so expired claims are eventually purged.
func (l *MongoLedger) EnsureIndexes(ctx context.Context) error {
	if l.Collection == nil {
		return ErrNilCollection
	}
	_, err := l.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
	})
	return err
}

// Claim takes key for window. It returns false when an unexpired claim exists.
// An expired claim is overwritten in place; a live one makes the upsert
// collide on _id.
func (l *MongoLedger) Claim(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	if l.Collection == nil {
		return false, ErrNilCollection
	}
	_, err := l.Collection.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"claimed_at": now, "expires_at": now.Add(window)}},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Release drops a claim so the key can be taken again.
func (l *MongoLedger) Release(ctx context.Context, key string) error {
	if l.Collection == nil {
		return ErrNilCollection
	}
	_, err := l.Collection.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

package mongodb

import (
	"context"
	"errors"
	"time"

	"vault-sentinel/internal/config"
	"vault-sentinel/internal/executor"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const noncesCollection = "nonces"

// Consume marks the nonce key used, satisfying executor.NonceStore. The
// unique _id makes the check-and-mark a single atomic insert: of two
// concurrent attempts for the same key exactly one succeeds.
func (b Repository) Consume(ctx context.Context, key string) error {
	coll := b.client.Database(config.GetDatabaseName()).Collection(noncesCollection)

	_, err := coll.InsertOne(ctx, storedNonce{ID: key, ConsumedAt: time.Now()})
	if mongo.IsDuplicateKeyError(err) {
		return executor.ErrNonceUsed
	}
	if err != nil {
		return errors.New("failed to mark the nonce used: " + err.Error())
	}
	return nil
}

func (b Repository) Release(ctx context.Context, key string) error {
	coll := b.client.Database(config.GetDatabaseName()).Collection(noncesCollection)

	if _, err := coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return errors.New("failed to release the nonce: " + err.Error())
	}
	return nil
}

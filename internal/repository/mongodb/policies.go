package mongodb

import (
	"context"
	"errors"
	"fmt"

	"vault-sentinel/internal/config"
	"vault-sentinel/internal/model"
	"vault-sentinel/internal/policy"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const policiesCollection = "policies"

// Replace deactivates the active version of the vault and inserts the new
// one, satisfying policy.Store.
func (b Repository) Replace(ctx context.Context, pol model.Policy) error {
	coll := b.client.Database(config.GetDatabaseName()).Collection(policiesCollection)

	filter := bson.M{"vault": pol.Vault, "active": true}
	if _, err := coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"active": false}}); err != nil {
		return errors.New("failed to deactivate the current policy: " + err.Error())
	}

	stored := storedPolicy{
		ID:                 fmt.Sprintf("%s:%d", pol.Vault, pol.Version),
		Vault:              pol.Vault,
		Owner:              pol.Owner,
		RiskTolerance:      pol.RiskTolerance,
		MaxTradePercent:    pol.MaxTradePercent,
		EmergencyThreshold: pol.EmergencyThreshold,
		AllowedVenues:      pol.AllowedVenues,
		Active:             pol.Active,
		Version:            pol.Version,
		UpdatedAt:          pol.UpdatedAt,
	}

	if _, err := coll.InsertOne(ctx, stored); err != nil {
		return errors.New("failed to insert the new policy version: " + err.Error())
	}
	return nil
}

func (b Repository) ActivePolicy(ctx context.Context, vault string) (model.Policy, error) {
	coll := b.client.Database(config.GetDatabaseName()).Collection(policiesCollection)

	var stored storedPolicy
	err := coll.FindOne(ctx, bson.M{"vault": vault, "active": true}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Policy{}, policy.ErrNoActivePolicy
	}
	if err != nil {
		return model.Policy{}, errors.New("failed to find the active policy: " + err.Error())
	}

	return toModelPolicy(stored), nil
}

func (b Repository) History(ctx context.Context, vault string) ([]model.Policy, error) {
	coll := b.client.Database(config.GetDatabaseName()).Collection(policiesCollection)

	cursor, err := coll.Find(ctx, bson.M{"vault": vault},
		options.Find().SetSort(bson.M{"version": 1}))
	if err != nil {
		return nil, errors.New("failed to find the policy history: " + err.Error())
	}

	var stored []storedPolicy
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, errors.New("failed to read the policy history from the cursor: " + err.Error())
	}

	history := make([]model.Policy, len(stored))
	for i, version := range stored {
		history[i] = toModelPolicy(version)
	}
	return history, nil
}

func toModelPolicy(stored storedPolicy) model.Policy {
	return model.Policy{
		Vault:              stored.Vault,
		Owner:              stored.Owner,
		RiskTolerance:      stored.RiskTolerance,
		MaxTradePercent:    stored.MaxTradePercent,
		EmergencyThreshold: stored.EmergencyThreshold,
		AllowedVenues:      stored.AllowedVenues,
		Active:             stored.Active,
		Version:            stored.Version,
		UpdatedAt:          stored.UpdatedAt,
	}
}

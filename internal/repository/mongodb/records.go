package mongodb

import (
	"context"
	"errors"

	"vault-sentinel/internal/audit"
	"vault-sentinel/internal/config"
	"vault-sentinel/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const recordsCollection = "records"

// Append inserts the execution record keyed by its proposal hash,
// satisfying audit.Sink. A duplicate hash is reported as
// audit.ErrAlreadyRecorded, never overwritten.
func (b Repository) Append(ctx context.Context, record model.ExecutionRecord) error {
	coll := b.client.Database(config.GetDatabaseName()).Collection(recordsCollection)

	stored := storedRecord{
		ID:               record.ProposalHash,
		RecordID:         record.RecordID,
		Vault:            record.Vault,
		ExecutorIdentity: record.ExecutorIdentity,
		ActionType:       uint8(record.ActionType),
		Params:           record.Params,
		ContentHash:      record.ContentHash,
		Timestamp:        record.Timestamp,
		SequenceNumber:   record.SequenceNumber,
	}

	_, err := coll.InsertOne(ctx, stored)
	if mongo.IsDuplicateKeyError(err) {
		b.logger.Debug("execution record already present",
			zap.String("proposalHash", record.ProposalHash))
		return audit.ErrAlreadyRecorded
	}
	if err != nil {
		return errors.New("failed to insert the execution record: " + err.Error())
	}
	return nil
}

func (b Repository) Records(ctx context.Context, vault string) ([]model.ExecutionRecord, error) {
	coll := b.client.Database(config.GetDatabaseName()).Collection(recordsCollection)

	filter := bson.M{}
	if vault != "" {
		filter["vault"] = vault
	}

	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.M{"sequenceNumber": 1}))
	if err != nil {
		return nil, errors.New("failed to find the execution records: " + err.Error())
	}

	var stored []storedRecord
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, errors.New("failed to read the execution records from the cursor: " + err.Error())
	}

	records := make([]model.ExecutionRecord, len(stored))
	for i, record := range stored {
		records[i] = model.ExecutionRecord{
			RecordID:         record.RecordID,
			ProposalHash:     record.ID,
			Vault:            record.Vault,
			ExecutorIdentity: record.ExecutorIdentity,
			ActionType:       model.ActionType(record.ActionType),
			Params:           record.Params,
			ContentHash:      record.ContentHash,
			Timestamp:        record.Timestamp,
			SequenceNumber:   record.SequenceNumber,
		}
	}
	return records, nil
}

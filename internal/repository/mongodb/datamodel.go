package mongodb

import "time"

type storedPolicy struct {
	// vault + ":" + version, so every version stays addressable
	ID                 string    `bson:"_id"`
	Vault              string    `bson:"vault"`
	Owner              string    `bson:"owner"`
	RiskTolerance      uint      `bson:"riskTolerance"`
	MaxTradePercent    uint      `bson:"maxTradePercent"`
	EmergencyThreshold uint      `bson:"emergencyThreshold"`
	AllowedVenues      []string  `bson:"allowedVenues"`
	Active             bool      `bson:"active"`
	Version            uint      `bson:"version"`
	UpdatedAt          time.Time `bson:"updatedAt"`
}

type storedRecord struct {
	// the proposal hash keys the record: a duplicate insert is refused by
	// the collection itself
	ID               string    `bson:"_id"`
	RecordID         string    `bson:"recordID"`
	Vault            string    `bson:"vault"`
	ExecutorIdentity string    `bson:"executorIdentity"`
	ActionType       uint8     `bson:"actionType"`
	Params           []byte    `bson:"params"`
	ContentHash      string    `bson:"contentHash"`
	Timestamp        time.Time `bson:"timestamp"`
	SequenceNumber   uint64    `bson:"sequenceNumber"`
}

type storedNonce struct {
	// signer identity + ":" + nonce
	ID         string    `bson:"_id"`
	ConsumedAt time.Time `bson:"consumedAt"`
}

package model

import "time"

// ExecutionRecord is the immutable audit entry written at successful
// execution, keyed by the proposal hash: a given hash is recorded at most
// once even if the replay protection is somehow bypassed.
type ExecutionRecord struct {
	RecordID         string
	ProposalHash     string
	Vault            string
	ExecutorIdentity string
	ActionType       ActionType
	Params           []byte
	ContentHash      string
	Timestamp        time.Time
	SequenceNumber   uint64
}

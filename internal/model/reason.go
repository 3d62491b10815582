package model

// Reason classifies a proposal rejection. Rejections are expected, frequent
// outcomes: they are returned to the caller, never raised as errors, and the
// executor itself never retries them. Resubmission requires a fresh nonce.
type Reason string

const (
	ReasonDeadlineInvalid   Reason = "DeadlineInvalid"
	ReasonInvalidSignature  Reason = "InvalidSignature"
	ReasonNonceReused       Reason = "NonceReused"
	ReasonPolicyViolation   Reason = "PolicyViolation"
	ReasonUnsupportedAction Reason = "UnsupportedAction"
)

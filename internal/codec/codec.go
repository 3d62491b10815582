// Package codec defines the byte-exact proposal encoding shared by the
// signer and the verifier. Both sides must hash the same bytes; a divergence
// here breaks signature verification for every proposal in flight.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"

	"vault-sentinel/internal/hashing"
	"vault-sentinel/internal/model"

	"github.com/fxamacker/cbor"
)

// Encode serializes the six proposal fields in a fixed order with fixed
// integer widths. Variable-length fields are length-prefixed with a
// big-endian uint32; an empty params payload encodes as a zero length,
// never as an omitted field.
func Encode(proposal model.Proposal) []byte {
	var buf bytes.Buffer

	writeBytes(&buf, []byte(proposal.Vault))
	buf.WriteByte(byte(proposal.ActionType))
	writeBytes(&buf, proposal.Params)
	writeBytes(&buf, []byte(proposal.ContentHash))

	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], proposal.Nonce)
	buf.Write(nonce[:])

	var deadline [8]byte
	binary.BigEndian.PutUint64(deadline[:], uint64(proposal.Deadline.Unix()))
	buf.Write(deadline[:])

	return buf.Bytes()
}

// Hash returns the keccak256 digest of the encoded proposal. This is the
// value the agent signs and the executor verifies.
func Hash(proposal model.Proposal) [32]byte {
	return hashing.Calculate(Encode(proposal))
}

// HashHex returns the proposal hash as a hex string, the key of the
// execution record written for it.
func HashHex(proposal model.Proposal) string {
	return hashing.CalculateHex(Encode(proposal))
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(data)))
	buf.Write(length[:])
	buf.Write(data)
}

// EncodeSwapParams dumps swap params in canonical CBOR so that repeated
// encodings of the same values are byte-identical.
func EncodeSwapParams(params model.SwapParams) ([]byte, error) {
	dump, err := cbor.Marshal(params, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, errors.New("failed to dump the swap params: " + err.Error())
	}
	return dump, nil
}

func DecodeSwapParams(payload []byte) (model.SwapParams, error) {
	var params model.SwapParams
	if err := cbor.Unmarshal(payload, &params); err != nil {
		return model.SwapParams{}, errors.New("failed to decode the swap params: " + err.Error())
	}
	return params, nil
}

// EncodeTransferParams dumps lend/borrow params in canonical CBOR.
func EncodeTransferParams(params model.TransferParams) ([]byte, error) {
	dump, err := cbor.Marshal(params, cbor.CanonicalEncOptions())
	if err != nil {
		return nil, errors.New("failed to dump the transfer params: " + err.Error())
	}
	return dump, nil
}

func DecodeTransferParams(payload []byte) (model.TransferParams, error) {
	var params model.TransferParams
	if err := cbor.Unmarshal(payload, &params); err != nil {
		return model.TransferParams{}, errors.New("failed to decode the transfer params: " + err.Error())
	}
	return params, nil
}

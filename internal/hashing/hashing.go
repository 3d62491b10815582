package hashing

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// prefix applied before signing, so that a signed proposal digest can never
// collide with any other message the agent key might be asked to sign
const signedMessagePrefix = "\x19Ethereum Signed Message:\n32"

const AddressLength = 20

// Calculate returns the keccak256 digest of data.
func Calculate(data []byte) [32]byte {
	hash := sha3.NewLegacyKeccak256()
	// the keccak writer never returns an error
	_, _ = hash.Write(data)

	var digest [32]byte
	copy(digest[:], hash.Sum(nil))
	return digest
}

// CalculateHex returns the keccak256 digest of data as a hex string.
func CalculateHex(data []byte) string {
	digest := Calculate(data)
	return hex.EncodeToString(digest[:])
}

// PrefixedDigest wraps a proposal digest with the signed-message prefix and
// hashes again. The signature scheme signs this value, not the raw digest.
func PrefixedDigest(digest [32]byte) [32]byte {
	return Calculate(append([]byte(signedMessagePrefix), digest[:]...))
}

// AddressFromPubkey derives a 20-byte hex identity from an uncompressed
// secp256k1 public key (0x04-prefixed, 65 bytes): the last 20 bytes of the
// keccak256 digest of the key body.
func AddressFromPubkey(pubkey []byte) string {
	body := pubkey
	if len(body) == 65 && body[0] == 0x04 {
		body = body[1:]
	}
	digest := Calculate(body)
	return hex.EncodeToString(digest[32-AddressLength:])
}

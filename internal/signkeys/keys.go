package signkeys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"strings"

	"vault-sentinel/internal/hashing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// NullIdentity is the identity no key can recover to. Registering it as the
// agent signer makes every signature check fail, which is exactly what the
// emergency pause relies on.
var NullIdentity = strings.Repeat("0", 2*hashing.AddressLength)

type AgentKeys struct {
	PrivateKey *secp256k1.PrivateKey
	PublicKey  *secp256k1.PublicKey
}

// Identity returns the address-style identity derived from the public key.
func (k AgentKeys) Identity() string {
	return hashing.AddressFromPubkey(k.PublicKey.SerializeUncompressed())
}

// source: https://github.com/ethereum/go-ethereum/blob/86d547707965685cef732aa28c15e6811ea98408/crypto/secp256k1/secp256_test.go#L19
func GenerateKeys() (AgentKeys, error) {
	key, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return AgentKeys{}, errors.New("failed to generate the keys: " + err.Error())
	}

	privkey := make([]byte, 32)
	blob := key.D.Bytes()
	copy(privkey[32-len(blob):], blob)

	return KeysFromPrivateBytes(privkey)
}

// KeysFromPrivateBytes rebuilds the key pair from raw 32-byte private key
// material. Malformed material is a fatal configuration error, not retried.
func KeysFromPrivateBytes(privkey []byte) (AgentKeys, error) {
	if len(privkey) != 32 {
		return AgentKeys{}, errors.New("private key material must be 32 bytes")
	}

	private := secp256k1.PrivKeyFromBytes(privkey)
	return AgentKeys{
		PrivateKey: private,
		PublicKey:  private.PubKey(),
	}, nil
}

// Sign produces a compact recoverable ECDSA signature over the prefixed
// proposal digest.
func Sign(key *secp256k1.PrivateKey, digest [32]byte) []byte {
	prefixed := hashing.PrefixedDigest(digest)
	return secpecdsa.SignCompact(key, prefixed[:], false)
}

// Recover returns the identity that produced the signature over digest.
// Malformed signature bytes yield an error, never a panic.
func Recover(digest [32]byte, signature []byte) (string, error) {
	prefixed := hashing.PrefixedDigest(digest)

	pubkey, _, err := secpecdsa.RecoverCompact(signature, prefixed[:])
	if err != nil {
		return "", errors.New("failed to recover the signer: " + err.Error())
	}

	return hashing.AddressFromPubkey(pubkey.SerializeUncompressed()), nil
}

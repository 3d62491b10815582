package keymanager

import (
	"encoding/hex"
	"errors"

	"vault-sentinel/internal/signkeys"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// KeyManager generates agent key pairs and remembers the private key
// material by public identity, so the demo agent can be rebuilt after an
// emergency rotation without any external key storage.
type KeyManager struct {
	logger   *zap.Logger
	keyCache *cache.Cache
}

func NewKeyManager(logger *zap.Logger) KeyManager {
	return KeyManager{
		logger:   logger,
		keyCache: cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

func (k KeyManager) GenerateKeys() (signkeys.AgentKeys, error) {
	keys, err := signkeys.GenerateKeys()
	if err != nil {
		return signkeys.AgentKeys{}, err
	}

	k.keyCache.SetDefault(keys.Identity(), hex.EncodeToString(keys.PrivateKey.Serialize()))
	k.logger.Debug("generated agent keys", zap.String("identity", keys.Identity()))

	return keys, nil
}

// GetKeys returns the cached key pair for the given identity.
func (k KeyManager) GetKeys(identity string) (signkeys.AgentKeys, error) {
	cached, ok := k.keyCache.Get(identity)
	if !ok {
		return signkeys.AgentKeys{}, errors.New("no keys cached for identity " + identity)
	}

	material, err := hex.DecodeString(cached.(string))
	if err != nil {
		return signkeys.AgentKeys{}, errors.New("corrupted key material in the cache: " + err.Error())
	}

	return signkeys.KeysFromPrivateBytes(material)
}

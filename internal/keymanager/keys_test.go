package keymanager_test

import (
	"testing"

	"vault-sentinel/internal/keymanager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateAndGetKeys(t *testing.T) {
	manager := keymanager.NewKeyManager(zap.NewNop())

	keys, err := manager.GenerateKeys()
	require.NoError(t, err)

	cached, err := manager.GetKeys(keys.Identity())
	require.NoError(t, err)
	assert.Equal(t, keys.Identity(), cached.Identity())
}

func TestGetKeysUnknownIdentity(t *testing.T) {
	manager := keymanager.NewKeyManager(zap.NewNop())

	_, err := manager.GetKeys("deadbeef")
	assert.Error(t, err)
}

package keyring_test

import (
	"testing"

	"github.com/alkime/captions/internal/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
)

func TestKeychainRoundTrip(t *testing.T) {
	gokeyring.MockInit()

	assert.False(t, keyring.IsSet(keyring.Anthropic))
	assert.Equal(t, "", keyring.Resolve("", keyring.Anthropic))

	require.NoError(t, keyring.Set(keyring.Anthropic, "sk-ant-test"))
	assert.True(t, keyring.IsSet(keyring.Anthropic))
	assert.Equal(t, "sk-ant-test", keyring.Resolve("", keyring.Anthropic))
	assert.Equal(t, "from-env", keyring.Resolve("from-env", keyring.Anthropic))
}

func TestAPIKeyFromServiceName(t *testing.T) {
	key, err := keyring.APIKeyFromServiceName("openai")
	require.NoError(t, err)
	assert.Equal(t, keyring.OpenAI, key)
	assert.Equal(t, "openai", key.DisplayName())

	_, err = keyring.APIKeyFromServiceName("deepgram")
	assert.Error(t, err)
}

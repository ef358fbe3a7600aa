package services

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"issuesolver/internal/llm/client"
	"issuesolver/internal/tests/mocks"
)

func TestCredentialResolver_UserKeyOverridesDefault(t *testing.T) {
	keys := NewKeyringService(keyring.NewArrayKeyring(nil))
	require.NoError(t, keys.StoreApiKey("", "anthropic", []byte("shared")))
	require.NoError(t, keys.StoreApiKey("alice", "anthropic", []byte("mine")))

	models := NewModelConfigService(&mocks.ModelSettingRepositoryMock{})
	require.NoError(t, models.Startup(context.Background()))
	resolver := NewCredentialResolver(keys, models, "anthropic", "")

	creds, err := resolver.Resolve(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "mine", creds.APIKey)
	assert.Equal(t, client.KeySourceUser, creds.Source)
	assert.Equal(t, "anthropic", creds.Provider)
	assert.NotEmpty(t, creds.Model)

	creds, err = resolver.Resolve(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "shared", creds.APIKey)
	assert.Equal(t, client.KeySourceDefault, creds.Source)
}

func TestCredentialResolver_ConfiguredModelWins(t *testing.T) {
	keys := NewKeyringService(keyring.NewArrayKeyring(nil))
	require.NoError(t, keys.StoreApiKey("", "openai", []byte("shared")))

	creds, err := NewCredentialResolver(keys, nil, "", "gpt-4.1").Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, client.ProviderOpenAI, creds.Provider)
	assert.Equal(t, "gpt-4.1", creds.Model)
}

func TestCredentialResolver_NoKey(t *testing.T) {
	keys := NewKeyringService(keyring.NewArrayKeyring(nil))
	_, err := NewCredentialResolver(keys, nil, "gemini", "flash").Resolve(context.Background(), "alice")

	var ge *GatewayError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, KindInvalidCredential, ge.Kind)
	assert.Equal(t, client.KeySourceDefault, ge.KeySource)
	assert.Contains(t, ge.Error(), "no API key configured for gemini")
}

func TestCredentialResolver_ColonSubjectFallsBackToDefault(t *testing.T) {
	keys := NewKeyringService(keyring.NewArrayKeyring(nil))
	require.NoError(t, keys.StoreApiKey("", "openai", []byte("shared")))
	resolver := NewCredentialResolver(keys, nil, "openai", "gpt-5")

	creds, err := resolver.Resolve(context.Background(), "system:serviceaccount:x")
	require.NoError(t, err)
	assert.Equal(t, "shared", creds.APIKey)
	assert.Equal(t, client.KeySourceDefault, creds.Source)

	require.NoError(t, keys.StoreApiKey("google-oauth2:1234", "openai", []byte("mine")))
	creds, err = resolver.Resolve(context.Background(), "google-oauth2:1234")
	require.NoError(t, err)
	assert.Equal(t, "mine", creds.APIKey)
	assert.Equal(t, client.KeySourceUser, creds.Source)
}

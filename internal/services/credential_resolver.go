package services

import (
	"context"
	"fmt"
	"strings"

	"issuesolver/internal/llm/client"
)

// KeyStore is the subset of KeyringService the resolver needs.
type KeyStore interface {
	GetApiKey(userID, provider string) (string, error)
}

// CredentialResolver picks the provider, model and key for one request. A
// key stored by the user overrides the operator default.
type CredentialResolver interface {
	Resolve(ctx context.Context, userID string) (client.Credentials, error)
}

type credentialResolver struct {
	keys     KeyStore
	models   ModelConfigService
	provider string
	model    string
}

func NewCredentialResolver(keys KeyStore, models ModelConfigService, provider, model string) CredentialResolver {
	return &credentialResolver{
		keys:     keys,
		models:   models,
		provider: strings.TrimSpace(provider),
		model:    strings.TrimSpace(model),
	}
}

func (r *credentialResolver) Resolve(ctx context.Context, userID string) (client.Credentials, error) {
	creds := client.Credentials{Provider: r.provider, Model: r.model}
	if creds.Provider == "" {
		creds.Provider = client.ProviderOpenAI
	}
	if creds.Model == "" && r.models != nil {
		mdl, err := r.models.DefaultModel(creds.Provider)
		if err != nil {
			return client.Credentials{}, fmt.Errorf("select model: %w", err)
		}
		creds.Model = mdl.APIName
	}

	if userID != "" {
		key, err := r.keys.GetApiKey(userID, creds.Provider)
		if err != nil {
			return client.Credentials{}, fmt.Errorf("read user API key: %w", err)
		}
		if key != "" {
			creds.APIKey = key
			creds.Source = client.KeySourceUser
			return creds, nil
		}
	}

	key, err := r.keys.GetApiKey("", creds.Provider)
	if err != nil {
		return client.Credentials{}, fmt.Errorf("read default API key: %w", err)
	}
	if key == "" {
		return client.Credentials{}, &GatewayError{
			Kind:      KindInvalidCredential,
			KeySource: client.KeySourceDefault,
			Err:       fmt.Errorf("no API key configured for %s", creds.Provider),
		}
	}
	creds.APIKey = key
	creds.Source = client.KeySourceDefault
	return creds, nil
}

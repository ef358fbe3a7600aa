package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "issuesolver"

// KeyringOptions selects and unlocks the keyring backend.
type KeyringOptions struct {
	Backend  string
	FileDir  string
	Password string
}

// OpenKeyring opens the configured backend. "file" is encrypted with Password
// and works on headless hosts; "system" uses the OS keychain.
func OpenKeyring(opts KeyringOptions) (keyring.Keyring, error) {
	backend := strings.TrimSpace(opts.Backend)
	if backend == "" {
		backend = string(keyring.FileBackend)
	}
	cfg := keyring.Config{ServiceName: serviceName}
	switch backend {
	case "system":
		// Any OS keychain the platform offers.
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.WinCredBackend,
		}
	default:
		cfg.AllowedBackends = []keyring.BackendType{keyring.BackendType(backend)}
	}
	if keyring.BackendType(backend) == keyring.FileBackend {
		if opts.Password == "" {
			return nil, errors.New("keyring password is required for the file backend")
		}
		cfg.FileDir = opts.FileDir
		cfg.FilePasswordFunc = keyring.FixedStringPrompt(opts.Password)
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

// APIKeyInfo describes a stored key without revealing it.
type APIKeyInfo struct {
	Provider    string `json:"provider"`
	Scope       string `json:"scope"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// KeyringService stores provider API keys per user, plus one operator-wide
// default per provider.
type KeyringService struct {
	ring keyring.Keyring
}

func NewKeyringService(ring keyring.Keyring) *KeyringService {
	return &KeyringService{ring: ring}
}

// userKey encodes the user id so subjects containing ':' stay unambiguous.
func userKey(userID, provider string) string {
	return userPrefix(userID) + provider
}

func userPrefix(userID string) string {
	return "user:" + base64.RawURLEncoding.EncodeToString([]byte(userID)) + ":"
}

func defaultKey(provider string) string {
	return "default:" + provider
}

func (s *KeyringService) StoreApiKey(userID, provider string, apiKey []byte) error {
	if len(apiKey) == 0 {
		return errors.New("API key is empty")
	}
	key, err := s.itemKey(userID, provider)
	if err != nil {
		return err
	}
	return s.ring.Set(keyring.Item{
		Key:         key,
		Data:        apiKey,
		Label:       provider + " API key",
		Description: "API key for " + provider + " used by issuesolver",
	})
}

// GetApiKey returns "" with a nil error when no key is stored.
func (s *KeyringService) GetApiKey(userID, provider string) (string, error) {
	key, err := s.itemKey(userID, provider)
	if err != nil {
		return "", err
	}
	item, err := s.ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(item.Data), nil
}

func (s *KeyringService) DeleteApiKey(userID, provider string) error {
	key, err := s.itemKey(userID, provider)
	if err != nil {
		return err
	}
	if err := s.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}

// ListApiKeys lists the caller's keys, or the default keys when userID is empty.
func (s *KeyringService) ListApiKeys(userID string) ([]APIKeyInfo, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, err
	}

	prefix := "default:"
	scope := string(KeyScopeDefault)
	if userID != "" {
		prefix = userPrefix(userID)
		scope = string(KeyScopeUser)
	}

	results := make([]APIKeyInfo, 0)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		provider := strings.TrimPrefix(k, prefix)
		if provider == "" || strings.Contains(provider, ":") {
			continue
		}
		results = append(results, APIKeyInfo{
			Provider:    provider,
			Scope:       scope,
			Label:       provider + " API key",
			Description: "API key for " + provider + " used by issuesolver",
		})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Provider < results[j].Provider })
	return results, nil
}

type KeyScope string

const (
	KeyScopeUser    KeyScope = "user"
	KeyScopeDefault KeyScope = "default"
)

func (s *KeyringService) itemKey(userID, provider string) (string, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", errors.New("provider is required")
	}
	if userID == "" {
		return defaultKey(provider), nil
	}
	return userKey(userID, provider), nil
}

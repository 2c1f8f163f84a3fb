// Package auth stores and retrieves the API bearer token. Stores are tried
// in order of preference: system keyring, encrypted file, environment.
package auth

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"tweetarc/pkg/errors"
)

// Store errors.
var (
	ErrTokenNotFound    = stderrors.New("token not found")
	ErrStoreUnavailable = stderrors.New("token store unavailable")
)

// TokenStore persists a single bearer token.
type TokenStore interface {
	Set(token string) error
	Get() (string, error)
	Delete() error
}

// Manager chains token stores with fallback.
type Manager struct {
	stores []TokenStore
}

// NewManager creates a manager with the available storage backends.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over explicit stores. For tests.
func NewManagerWithStores(stores ...TokenStore) *Manager {
	return &Manager{stores: stores}
}

// Set saves the token in the first store that accepts it.
func (m *Manager) Set(token string) error {
	if token == "" {
		return stderrors.New("token is required")
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Set(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Get returns the token from the first store that has one. A missing token
// is the fatal NoToken condition: the caller must provision one.
func (m *Manager) Get() (string, error) {
	for _, store := range m.stores {
		if token, err := store.Get(); err == nil && token != "" {
			return token, nil
		}
	}
	return "", errors.New(errors.ErrorTypeNoToken,
		"no bearer token configured; run 'tweetarc auth login' or set TWEETARC_BEARER_TOKEN")
}

// Delete removes the token from every store that holds it.
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else if !stderrors.Is(err, ErrTokenNotFound) && !stderrors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}
	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return nil
}

// MaskToken masks all but the first and last four characters of a token.
func MaskToken(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// getConfigDir returns the configuration directory path.
func getConfigDir() (string, error) {
	var configDir string

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		configDir = filepath.Join(xdgConfig, "tweetarc")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "tweetarc")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

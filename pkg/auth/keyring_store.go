package auth

import (
	stderrors "errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "tweetarc"
	keyringKey     = "bearer_token"
)

// KeyringStore implements TokenStore using the system keychain.
type KeyringStore struct{}

// NewKeyringStore creates a keyring-backed token store, probing that the
// keyring is actually usable on this system.
func NewKeyringStore() (*KeyringStore, error) {
	testKey := "test_availability"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Set saves the token to the system keychain.
func (k *KeyringStore) Set(token string) error {
	if err := keyring.Set(keyringService, keyringKey, token); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Get retrieves the token from the system keychain.
func (k *KeyringStore) Get() (string, error) {
	token, err := keyring.Get(keyringService, keyringKey)
	if err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return token, nil
}

// Delete removes the token from the system keychain.
func (k *KeyringStore) Delete() error {
	if err := keyring.Delete(keyringService, keyringKey); err != nil {
		if stderrors.Is(err, keyring.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

package auth

import "os"

// envToken is the environment variable holding the bearer token.
const envToken = "TWEETARC_BEARER_TOKEN"

// EnvironmentStore implements TokenStore using environment variables.
// Read-only; primarily for CI and backward compatibility.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-backed token store.
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Set is not supported for environment variables.
func (e *EnvironmentStore) Set(token string) error {
	return ErrStoreUnavailable
}

// Get reads the token from the environment.
func (e *EnvironmentStore) Get() (string, error) {
	token := os.Getenv(envToken)
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Delete is not supported for environment variables.
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}

package auth

import (
	"path/filepath"
	"testing"

	"tweetarc/pkg/errors"
)

// fakeStore is an in-memory TokenStore for exercising the fallback chain.
type fakeStore struct {
	token     string
	available bool
	setCalls  int
}

func (s *fakeStore) Set(token string) error {
	s.setCalls++
	if !s.available {
		return ErrStoreUnavailable
	}
	s.token = token
	return nil
}

func (s *fakeStore) Get() (string, error) {
	if !s.available {
		return "", ErrStoreUnavailable
	}
	if s.token == "" {
		return "", ErrTokenNotFound
	}
	return s.token, nil
}

func (s *fakeStore) Delete() error {
	if !s.available {
		return ErrStoreUnavailable
	}
	if s.token == "" {
		return ErrTokenNotFound
	}
	s.token = ""
	return nil
}

func TestManagerSet(t *testing.T) {
	t.Run("FirstAvailableStoreWins", func(t *testing.T) {
		primary := &fakeStore{available: true}
		secondary := &fakeStore{available: true}
		m := NewManagerWithStores(primary, secondary)

		if err := m.Set("tok"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if primary.token != "tok" {
			t.Error("Primary store did not receive the token")
		}
		if secondary.setCalls != 0 {
			t.Error("Secondary store should not be tried when primary succeeds")
		}
	})

	t.Run("FallsBackWhenPrimaryUnavailable", func(t *testing.T) {
		primary := &fakeStore{available: false}
		secondary := &fakeStore{available: true}
		m := NewManagerWithStores(primary, secondary)

		if err := m.Set("tok"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if secondary.token != "tok" {
			t.Error("Fallback store did not receive the token")
		}
	})

	t.Run("EmptyTokenRejected", func(t *testing.T) {
		m := NewManagerWithStores(&fakeStore{available: true})
		if err := m.Set(""); err == nil {
			t.Error("Expected error for empty token")
		}
	})
}

func TestManagerGet(t *testing.T) {
	t.Run("FirstStoreWithToken", func(t *testing.T) {
		m := NewManagerWithStores(
			&fakeStore{available: false},
			&fakeStore{available: true, token: "from-second"},
			&fakeStore{available: true, token: "from-third"},
		)
		token, err := m.Get()
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if token != "from-second" {
			t.Errorf("Expected token from second store, got %q", token)
		}
	})

	t.Run("NoTokenAnywhere", func(t *testing.T) {
		m := NewManagerWithStores(&fakeStore{available: true}, &fakeStore{available: false})
		_, err := m.Get()
		if !errors.IsType(err, errors.ErrorTypeNoToken) {
			t.Errorf("Expected no_token error, got %v", err)
		}
	})
}

func TestManagerDelete(t *testing.T) {
	first := &fakeStore{available: true, token: "a"}
	second := &fakeStore{available: true, token: "b"}
	m := NewManagerWithStores(first, second)

	if err := m.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if first.token != "" || second.token != "" {
		t.Error("Delete should clear every store")
	}

	// Deleting again is a no-op, not an error.
	if err := m.Delete(); err != nil {
		t.Errorf("Repeated delete failed: %v", err)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "********"},
		{"short", "********"},
		{"AAAABBBBCCCCDDDD", "AAAA...DDDD"},
	}
	for _, tt := range tests {
		if got := MaskToken(tt.in); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncryptedFileStore(t *testing.T) {
	t.Setenv("TWEETARC_CREDENTIALS_KEY", "test-passphrase")
	path := filepath.Join(t.TempDir(), "token.enc")

	store, err := NewEncryptedFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := store.Get(); err != ErrTokenNotFound {
			t.Errorf("Expected ErrTokenNotFound, got %v", err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		if err := store.Set("secret-bearer-token"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get()
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "secret-bearer-token" {
			t.Errorf("Round trip mismatch: %q", got)
		}
	})

	t.Run("WrongPassphrase", func(t *testing.T) {
		other, err := NewEncryptedFileStore(path)
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		other.passphrase = "different"
		if _, err := other.Get(); err == nil {
			t.Error("Expected decryption failure with wrong passphrase")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(); err != ErrTokenNotFound {
			t.Errorf("Expected ErrTokenNotFound after delete, got %v", err)
		}
	})
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Run("ReadOnly", func(t *testing.T) {
		if err := store.Set("x"); err != ErrStoreUnavailable {
			t.Errorf("Expected ErrStoreUnavailable on Set, got %v", err)
		}
		if err := store.Delete(); err != ErrStoreUnavailable {
			t.Errorf("Expected ErrStoreUnavailable on Delete, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		t.Setenv("TWEETARC_BEARER_TOKEN", "env-token")
		token, err := store.Get()
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if token != "env-token" {
			t.Errorf("Expected env-token, got %q", token)
		}
	})
}

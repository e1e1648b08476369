package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/ports"
)

// KeyringStore keeps the session record in the platform keyring
type KeyringStore struct {
	ring keyring.Keyring
	key  string
	mu   sync.Mutex
}

// NewKeyringStore wraps an opened keyring
func NewKeyringStore(ring keyring.Keyring, key string) *KeyringStore {
	if key == "" {
		key = DefaultKey
	}
	return &KeyringStore{ring: ring, key: key}
}

var _ ports.SessionStore = (*KeyringStore)(nil)

// KeyringOptions selects where the keyring lives
type KeyringOptions struct {
	ServiceName string
	// FileDir enables the encrypted file backend when no platform keyring exists
	FileDir      string
	FilePassword string
}

// OpenKeyring opens the platform-native keyring, falling back to the
// encrypted file backend when FileDir is set.
func OpenKeyring(opts KeyringOptions) (keyring.Keyring, error) {
	backends := platformKeyringBackends()
	if opts.FileDir != "" {
		backends = append(backends, keyring.FileBackend)
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("no keyring backend available on %s", runtime.GOOS)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:                    opts.ServiceName,
		AllowedBackends:                backends,
		KeychainTrustApplication:       true,
		KeychainAccessibleWhenUnlocked: true,
		KeychainSynchronizable:         false,
		FileDir:                        opts.FileDir,
		FilePasswordFunc:               keyring.FixedStringPrompt(opts.FilePassword),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return ring, nil
}

func platformKeyringBackends() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend}
	case "linux":
		return []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
		}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend}
	default:
		return nil
	}
}

// Restore reads the session item
func (s *KeyringStore) Restore(ctx context.Context) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return restoreRecord(ctx, item.Data, s.clearLocked)
}

// Save writes the session item
func (s *KeyringStore) Save(ctx context.Context, session core.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.ring.Set(keyring.Item{
		Key:         s.key,
		Data:        data,
		Label:       "Xaman wallet session",
		Description: "Wallet address and user token from the last Xaman sign-in",
	})
	if err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// Clear removes the session item
func (s *KeyringStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *KeyringStore) clearLocked(ctx context.Context) error {
	err := s.ring.Remove(s.key)
	// the file backend reports a missing item as a missing file
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove keyring item: %w", err)
	}
	return nil
}

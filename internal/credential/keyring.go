package credential

import (
	"errors"
	"fmt"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "civicdash"

// Durable keys for the session token pair.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("credential not found")

// Store is durable string key-value storage for secrets.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Keyring stores credentials in the operating system keyring, falling back
// to an encrypted file under the config directory.
type Keyring struct {
	fileDir string

	once sync.Once
	ring keyring.Keyring
	err  error
}

// NewKeyring returns a keyring-backed Store. fileDir is used by the file
// backend when no system keyring is available.
func NewKeyring(fileDir string) *Keyring {
	return &Keyring{fileDir: fileDir}
}

// open returns the configured keyring instance, opening it on first use.
func (k *Keyring) open() (keyring.Keyring, error) {
	k.once.Do(func() {
		ring, err := keyring.Open(keyring.Config{
			ServiceName: serviceName,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  k.fileDir,
			FilePasswordFunc:         keyring.FixedStringPrompt("civicdash-file-key"),
			KeychainTrustApplication: true,
		})
		if err != nil {
			k.err = fmt.Errorf("opening keyring: %w", err)
			return
		}
		k.ring = ring
	})
	return k.ring, k.err
}

// Get retrieves a credential value by key.
func (k *Keyring) Get(key string) (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key.
func (k *Keyring) Set(key string, value string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an error.
func (k *Keyring) Delete(key string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/hkdf"
)

var (
	masterKeyOnce sync.Once
	masterKey     []byte
	masterKeyErr  error
	masterKeyPath string
)

// SetMasterKeyPath configures where the master secret is loaded from. Must be
// called before the first DeriveKey.
func SetMasterKeyPath(path string) {
	masterKeyPath = path
}

// loadMasterKey resolves the master secret from, in order:
//  1. the file configured via SetMasterKeyPath
//  2. the QRLINK_MASTER_KEY environment variable
//  3. a freshly generated ephemeral secret (dev only; signatures won't
//     survive a restart)
func loadMasterKey() ([]byte, error) {
	if masterKeyPath != "" {
		data, err := os.ReadFile(masterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		return data, nil
	}

	if env := os.Getenv("QRLINK_MASTER_KEY"); env != "" {
		return []byte(env), nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
	}
	return buf, nil
}

// DeriveKey derives a 32-byte subkey from the master secret using HKDF-SHA256
// with the given purpose string as info. Distinct purposes yield independent
// keys, so one master secret can back QR signing and anything added later.
func DeriveKey(purpose string) ([]byte, error) {
	masterKeyOnce.Do(func() {
		masterKey, masterKeyErr = loadMasterKey()
	})
	if masterKeyErr != nil {
		return nil, masterKeyErr
	}

	r := hkdf.New(sha256.New, masterKey, nil, []byte(purpose))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive %q key: %w", purpose, err)
	}
	return key, nil
}

// ResetMasterKeyForTesting clears the cached master key. Tests only.
func ResetMasterKeyForTesting() {
	masterKeyOnce = sync.Once{}
	masterKey = nil
	masterKeyErr = nil
	masterKeyPath = ""
}

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// FileVault stores secrets encrypted at rest in a single JSON file. Each
// secret is sealed individually with AES-256-GCM; the file maps reference ->
// base64(nonce || ciphertext). The database side only ever sees references.
type FileVault struct {
	path string
	aead cipher.AEAD

	mu      sync.Mutex
	entries map[string]string
}

// NewFileVault opens or creates a file vault at path.
// Parameters:
//   - path: location of the vault file; parent directories are created.
//   - key: passphrase; the AES key is derived from it via SHA-256.
// Returns:
//   - *FileVault: initialized vault.
//   - error: non-nil if the file cannot be read or the cipher set up.
func NewFileVault(path, key string) (*FileVault, error) {
	if key == "" {
		return nil, fmt.Errorf("vault key must not be empty")
	}
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	v := &FileVault{
		path:    path,
		aead:    aead,
		entries: make(map[string]string),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v.entries); err != nil {
			return nil, fmt.Errorf("failed to parse vault file: %w", err)
		}
	}
	return v, nil
}

// Put stores a secret under a freshly generated reference.
func (v *FileVault) Put(secret string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(secret), nil)
	ref := uuid.New().String()

	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[ref] = base64.StdEncoding.EncodeToString(sealed)
	if err := v.flush(); err != nil {
		delete(v.entries, ref)
		return "", err
	}
	return ref, nil
}

// Get resolves a reference back to its plaintext secret.
func (v *FileVault) Get(ref string) (string, error) {
	v.mu.Lock()
	encoded, ok := v.entries[ref]
	v.mu.Unlock()
	if !ok {
		return "", ErrRefNotFound
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode vault entry: %w", err)
	}
	if len(sealed) < v.aead.NonceSize() {
		return "", fmt.Errorf("vault entry too short")
	}
	nonce, ciphertext := sealed[:v.aead.NonceSize()], sealed[v.aead.NonceSize():]
	plain, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt vault entry: %w", err)
	}
	return string(plain), nil
}

// Delete releases a stored secret.
func (v *FileVault) Delete(ref string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[ref]; !ok {
		return ErrRefNotFound
	}
	delete(v.entries, ref)
	return v.flush()
}

// flush writes the entry map to disk. Caller must hold v.mu.
func (v *FileVault) flush() error {
	data, err := json.MarshalIndent(v.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode vault file: %w", err)
	}
	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}
	if err := os.Rename(tmp, v.path); err != nil {
		return fmt.Errorf("failed to replace vault file: %w", err)
	}
	return nil
}

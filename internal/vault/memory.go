package vault

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryVault is a process-local Vault used in tests and one-shot runs.
type MemoryVault struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{entries: make(map[string]string)}
}

// Put stores a secret under a freshly generated reference.
func (v *MemoryVault) Put(secret string) (string, error) {
	ref := uuid.New().String()
	v.mu.Lock()
	v.entries[ref] = secret
	v.mu.Unlock()
	return ref, nil
}

// Get resolves a reference back to its plaintext secret.
func (v *MemoryVault) Get(ref string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	secret, ok := v.entries[ref]
	if !ok {
		return "", ErrRefNotFound
	}
	return secret, nil
}

// Delete releases a stored secret.
func (v *MemoryVault) Delete(ref string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.entries[ref]; !ok {
		return ErrRefNotFound
	}
	delete(v.entries, ref)
	return nil
}

// Len reports the number of stored secrets.
func (v *MemoryVault) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

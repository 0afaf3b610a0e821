package vault

import "errors"

// ErrRefNotFound is returned when a reference does not resolve to a secret.
var ErrRefNotFound = errors.New("vault: reference not found")

// Vault is an opaque key-value store for credential secrets. Put returns a
// generated reference; only the reference is ever persisted in account
// records, never the secret itself.
type Vault interface {
	// Put stores a secret and returns a freshly generated reference for it.
	// Parameters:
	//   - secret: plaintext value to store.
	// Returns:
	//   - string: opaque reference for later retrieval.
	//   - err: non-nil if the secret cannot be stored.
	Put(secret string) (string, error)

	// Get resolves a reference back to its plaintext secret.
	// Parameters:
	//   - ref: reference previously returned by Put.
	// Returns:
	//   - string: plaintext secret.
	//   - err: ErrRefNotFound if the reference is unknown.
	Get(ref string) (string, error)

	// Delete releases a stored secret. Deleting an unknown reference is an error.
	// Parameters:
	//   - ref: reference previously returned by Put.
	// Returns:
	//   - err: ErrRefNotFound if the reference is unknown.
	Delete(ref string) error
}

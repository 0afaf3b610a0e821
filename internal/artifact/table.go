package artifact

import (
	"errors"
	"sync"
)

// ErrNotFound is returned when no artifact is registered under an ID.
var ErrNotFound = errors.New("artifact: not found")

// Table correlates document metadata IDs with their not-yet-persisted binary
// artifacts for the lifetime of the process. It is owned by the orchestrator
// and cleared at the start of every fetch session, so an entry exists exactly
// when its document row was created in the current session.
type Table struct {
	mu      sync.RWMutex
	entries map[string]*Artifact
}

// NewTable creates an empty correlation table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*Artifact)}
}

// Put registers an artifact under a document ID, replacing any prior entry.
// Parameters:
//   - id: document metadata identifier.
//   - a: artifact to register.
// Returns: none.
func (t *Table) Put(id string, a *Artifact) {
	t.mu.Lock()
	t.entries[id] = a
	t.mu.Unlock()
}

// Get looks up the artifact for a document ID.
// Parameters:
//   - id: document metadata identifier.
// Returns:
//   - *Artifact: registered artifact.
//   - error: ErrNotFound if no entry exists.
func (t *Table) Get(id string) (*Artifact, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// Clear drops all entries. Called when a new fetch session supersedes the
// previous result set.
func (t *Table) Clear() {
	t.mu.Lock()
	t.entries = make(map[string]*Artifact)
	t.mu.Unlock()
}

// Len reports the number of registered artifacts.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

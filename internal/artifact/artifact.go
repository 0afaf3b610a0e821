package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Artifact is the binary content of one fetched document. A script either
// prefetches the bytes into memory (Data) or leaves them on a temp path
// (Path); exactly one of the two is set. Artifacts are never written to the
// primary store.
type Artifact struct {
	Data []byte
	Path string
}

// FromBytes wraps in-memory content.
func FromBytes(data []byte) *Artifact {
	return &Artifact{Data: data}
}

// FromPath wraps content already downloaded to a temp path.
func FromPath(path string) *Artifact {
	return &Artifact{Path: path}
}

// Bytes returns the artifact content, reading it from the temp path when it
// was not prefetched into memory.
// Parameters: none.
// Returns:
//   - []byte: binary content.
//   - error: non-nil if the temp path cannot be read.
func (a *Artifact) Bytes() ([]byte, error) {
	if a.Data != nil {
		return a.Data, nil
	}
	if a.Path == "" {
		return nil, fmt.Errorf("artifact has neither data nor path")
	}
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact file: %w", err)
	}
	return data, nil
}

// SaveTo writes the artifact content to path, creating parent directories.
// Parameters:
//   - path: destination file path.
// Returns:
//   - error: non-nil if the content cannot be resolved or written.
func (a *Artifact) SaveTo(path string) error {
	data, err := a.Bytes()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

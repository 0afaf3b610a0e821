package storage

import (
	"fmt"
	"strings"
)

// Config holds configuration for the document archive backend
type Config struct {
	Type      string // local, s3, r2
	Dir       string // base directory for the local backend
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	PublicURL string
}

// NewStorage creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: archive configuration selecting the backend and its credentials.
// Returns:
//   - ObjectStorage: initialized archive backend.
//   - error: non-nil if the backend cannot be created.
func NewStorage(cfg *Config) (ObjectStorage, error) {
	backend := cfg.Type
	if backend == "" {
		backend = detectBackend(cfg)
	}

	switch backend {
	case "local":
		return NewLocalStorage(cfg.Dir)
	case "s3", "r2":
		return NewS3Storage(cfg, StorageType(backend))
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Type)
	}
}

// detectBackend attempts to detect the backend from the configuration
func detectBackend(cfg *Config) string {
	if cfg.Endpoint == "" && cfg.Bucket == "" {
		return "local"
	}

	if strings.Contains(strings.ToLower(cfg.Endpoint), "r2.cloudflarestorage.com") {
		return "r2"
	}

	return "s3"
}

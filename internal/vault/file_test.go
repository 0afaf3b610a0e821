package vault

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileVaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	v, err := NewFileVault(path, "test-key")
	if err != nil {
		t.Fatalf("NewFileVault: %v", err)
	}

	ref, err := v.Put("p1")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ref == "" {
		t.Fatal("Put returned empty reference")
	}

	got, err := v.Get(ref)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "p1" {
		t.Errorf("Get = %q, want %q", got, "p1")
	}

	if err := v.Delete(ref); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := v.Get(ref); err != ErrRefNotFound {
		t.Errorf("Get after Delete = %v, want ErrRefNotFound", err)
	}
	if err := v.Delete(ref); err != ErrRefNotFound {
		t.Errorf("second Delete = %v, want ErrRefNotFound", err)
	}
}

func TestFileVaultPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	v, err := NewFileVault(path, "test-key")
	if err != nil {
		t.Fatalf("NewFileVault: %v", err)
	}
	ref, err := v.Put("secret-value")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewFileVault(path, "test-key")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ref)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got != "secret-value" {
		t.Errorf("Get = %q, want %q", got, "secret-value")
	}
}

func TestFileVaultNeverStoresPlaintext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.json")
	v, err := NewFileVault(path, "test-key")
	if err != nil {
		t.Fatalf("NewFileVault: %v", err)
	}
	if _, err := v.Put("super-secret-password"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(raw), "super-secret-password") {
		t.Error("vault file contains plaintext secret")
	}
	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		t.Fatalf("vault file is not valid JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("vault file has %d entries, want 1", len(entries))
	}
}

func TestFileVaultRequiresKey(t *testing.T) {
	if _, err := NewFileVault(filepath.Join(t.TempDir(), "vault.json"), ""); err == nil {
		t.Error("NewFileVault with empty key should fail")
	}
}

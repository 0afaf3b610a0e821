package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTablePutGet(t *testing.T) {
	table := NewTable()

	a := FromBytes([]byte("%PDF-1.4"))
	table.Put("doc-1", a)

	got, err := table.Get("doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != a {
		t.Error("Get returned a different artifact")
	}

	if _, err := table.Get("missing"); err != ErrNotFound {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}
}

func TestTableClear(t *testing.T) {
	table := NewTable()
	table.Put("doc-1", FromBytes([]byte("a")))
	table.Put("doc-2", FromBytes([]byte("b")))
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}

	table.Clear()
	if table.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", table.Len())
	}
	if _, err := table.Get("doc-1"); err != ErrNotFound {
		t.Errorf("Get after Clear = %v, want ErrNotFound", err)
	}
}

func TestTablePutReplaces(t *testing.T) {
	table := NewTable()
	table.Put("doc-1", FromBytes([]byte("old")))
	table.Put("doc-1", FromBytes([]byte("new")))

	got, err := table.Get("doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, err := got.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != "new" {
		t.Errorf("Bytes = %q, want %q", data, "new")
	}
}

func TestArtifactFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 content"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := FromPath(path)
	data, err := a.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(data) != "%PDF-1.4 content" {
		t.Errorf("Bytes = %q", data)
	}

	dest := filepath.Join(t.TempDir(), "out", "invoice.pdf")
	if err := a.SaveTo(dest); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	saved, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(saved) != "%PDF-1.4 content" {
		t.Errorf("saved content = %q", saved)
	}
}

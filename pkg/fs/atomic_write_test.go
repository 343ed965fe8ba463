package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xlkit/xlkit/pkg/fs"
)

func TestAtomicWriter_Write_CreatesFileWithContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final.txt")

	writer := fs.NewAtomicWriter(fs.NewReal())

	if err := writer.WriteWithDefaults(path, strings.NewReader("hello")); err != nil {
		t.Fatalf("WriteWithDefaults: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "hello" {
		t.Fatalf("content=%q, want %q", string(got), "hello")
	}
}

func TestAtomicWriter_Write_ReplacesExistingFileAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final.txt")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	writer := fs.NewAtomicWriter(fs.NewReal())

	if err := writer.WriteWithDefaults(path, strings.NewReader("new")); err != nil {
		t.Fatalf("WriteWithDefaults: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if string(got) != "new" {
		t.Fatalf("content=%q, want %q", string(got), "new")
	}

	// No leftover temp files in the parent directory.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 1 || entries[0].Name() != "final.txt" {
		t.Fatalf("dir entries=%v, want only final.txt", entries)
	}
}

func TestAtomicWriter_Write_AppliesRequestedPermissions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "final.txt")

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.Write(path, strings.NewReader("hello"), fs.AtomicWriteOptions{
		SyncDir: true,
		Perm:    0o640,
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if got, want := info.Mode().Perm(), os.FileMode(0o640); got != want {
		t.Fatalf("perm=%v, want %v", got, want)
	}
}

func TestAtomicWriter_Write_RejectsEmptyPath(t *testing.T) {
	t.Parallel()

	writer := fs.NewAtomicWriter(fs.NewReal())

	err := writer.WriteWithDefaults("", strings.NewReader("hello"))
	if err == nil {
		t.Fatal("expected error for empty path, got nil")
	}
}

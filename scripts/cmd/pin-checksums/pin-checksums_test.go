package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDigest(t *testing.T) {
	dir := t.TempDir()
	content := []byte("artifact bytes")
	path := filepath.Join(dir, "ttyd.x86_64")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	sum := sha256.Sum256(content)
	want := hex.EncodeToString(sum[:])
	got, err := fileDigest(path)
	if err != nil {
		t.Fatalf("fileDigest: %v", err)
	}
	if got != want {
		t.Fatalf("digest: got %q want %q", got, want)
	}
}

func TestRunErrors(t *testing.T) {
	if err := run(t.TempDir(), "ttyd"); err == nil {
		t.Fatal("expected error for empty dir")
	}
	if err := run(t.TempDir(), " "); err == nil {
		t.Fatal("expected error for blank artifact name")
	}
}

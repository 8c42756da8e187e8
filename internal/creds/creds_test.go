package creds

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureGeneratesOnce(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "perch")

	cred, path, created, err := Ensure(dir)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !created {
		t.Fatal("first Ensure did not create")
	}
	if cred.User != "perch" || cred.Password == "" {
		t.Fatalf("credential: %+v", cred)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credential file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("credential file mode %o, want 600", perm)
	}

	// Second call keeps the stored credential.
	again, _, created, err := Ensure(dir)
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if created {
		t.Fatal("second Ensure rotated the credential")
	}
	if again != cred {
		t.Fatalf("credential changed: %+v -> %+v", cred, again)
	}
}

func TestEnsureRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("no separator here\n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, _, _, err := Ensure(dir); err == nil || !strings.Contains(err.Error(), "credential file") {
		t.Fatalf("got %v, want credential file error", err)
	}
}

func TestBasicAuth(t *testing.T) {
	t.Parallel()

	c := Credential{User: "perch", Password: "s3cret"}
	if got := c.BasicAuth(); got != "perch:s3cret" {
		t.Fatalf("BasicAuth = %q", got)
	}
}

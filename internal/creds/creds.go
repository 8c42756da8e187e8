// Package creds generates and stores the web-terminal login credential.
package creds

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// FileName inside the perch config dir, format "user:password" as ttyd's
	// -c flag expects.
	FileName = "ttyd.cred"

	defaultUser = "perch"
)

// Credential is a basic-auth pair for the ttyd web terminal.
type Credential struct {
	User     string
	Password string
}

// BasicAuth renders the credential in ttyd -c form.
func (c Credential) BasicAuth() string {
	return c.User + ":" + c.Password
}

// Ensure returns the credential stored in dir, generating and persisting a
// fresh one (password from a random UUID) if none exists. Re-running install
// must not rotate a credential the user may already have saved, so an
// existing file always wins.
func Ensure(dir string) (Credential, string, bool, error) {
	path := filepath.Join(dir, FileName)

	if data, err := os.ReadFile(path); err == nil { // #nosec G304 -- perch config dir
		cred, parseErr := parse(string(data))
		if parseErr != nil {
			return Credential{}, "", false, fmt.Errorf("existing credential file %s: %w", path, parseErr)
		}
		return cred, path, false, nil
	} else if !os.IsNotExist(err) {
		return Credential{}, "", false, fmt.Errorf("read credential file: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Credential{}, "", false, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	cred := Credential{User: defaultUser, Password: uuid.NewString()}
	if err := os.WriteFile(path, []byte(cred.BasicAuth()+"\n"), 0o600); err != nil {
		return Credential{}, "", false, fmt.Errorf("write credential file: %w", err)
	}
	return cred, path, true, nil
}

func parse(data string) (Credential, error) {
	line := strings.TrimSpace(data)
	user, pass, ok := strings.Cut(line, ":")
	if !ok || user == "" || pass == "" {
		return Credential{}, fmt.Errorf("want user:password, got %d bytes", len(data))
	}
	return Credential{User: user, Password: pass}, nil
}

// Package verify implements digest and signature checks for downloaded
// release artifacts.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SHA256File computes the lowercase hex SHA-256 digest of the file at path.
func SHA256File(path string) (string, error) {
	// #nosec G304 -- path is a perch-owned temp or install path
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExtractChecksum pulls the digest for artifactName out of a SHA256SUMS-style
// manifest: one "<digest>  <name>" pair per line, # comments and blank lines
// ignored. A manifest holding a single bare digest is also accepted.
func ExtractChecksum(data []byte, artifactName string) (string, error) {
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("checksum manifest is empty")
	}
	if IsHexDigest(text, sha256.Size*2) {
		return strings.ToLower(text), nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		digest := fields[0]
		if !IsHexDigest(digest, sha256.Size*2) {
			continue
		}
		if filepath.Base(fields[len(fields)-1]) == artifactName {
			return strings.ToLower(digest), nil
		}
	}

	return "", fmt.Errorf("checksum for %s not found in manifest", artifactName)
}

// IsHexDigest reports whether value is a hex string of exactly expectedLen
// characters. expectedLen 0 skips the length check.
func IsHexDigest(value string, expectedLen int) bool {
	if expectedLen > 0 && len(value) != expectedLen {
		return false
	}
	if len(value)%2 != 0 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}

// FormatSize formats bytes as human-readable size.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

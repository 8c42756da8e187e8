// Package pin holds the pinned checksum table for binaries perch installs
// from upstream releases.
//
// The table is compiled into the binary and validated against a JSON Schema
// at load time. It is never fetched at runtime: pinning both the version and
// the digest is part of the security contract, so a compromised upstream
// cannot silently swap artifacts under an unchanged tag.
package pin

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed checksums.json
var embeddedManifest []byte

//go:embed checksums.schema.json
var manifestSchema []byte

var (
	// ErrUnsupportedArch means the architecture is not one perch knows about.
	ErrUnsupportedArch = errors.New("unsupported architecture")

	// ErrNoChecksum means the architecture is recognized but deliberately has
	// no pinned digest. Installing unverifiable binaries is policy-excluded,
	// so this is distinct from ErrUnsupportedArch.
	ErrNoChecksum = errors.New("no verified checksum available for this platform")
)

// Entry pins one upstream tool at one version.
type Entry struct {
	Version     string            `json:"version"`
	ReleaseHost string            `json:"releaseHost"`
	Artifact    string            `json:"artifact"`
	Checksums   map[string]string `json:"checksums"`   // arch tag -> 64-char lowercase hex sha256
	Unsupported []string          `json:"unsupported"` // arches refused by policy, not by omission
	MinisignKey string            `json:"minisignKey,omitempty"`
}

// Manifest is the full pinned table, keyed by tool name.
type Manifest struct {
	Tools map[string]Entry
}

// Pin is a resolved (tool, version, arch) entry ready for the fetcher.
type Pin struct {
	Tool    string
	Version string
	Arch    string
	Digest  string
	URL     string

	// MinisignKey and ManifestURL are set when the upstream release signs
	// its checksum manifest; the fetcher then verifies that signature in
	// addition to the pinned digest.
	MinisignKey string
	ManifestURL string
}

// NormalizeArch resolves an architecture spelling to the canonical tag used
// in artifact names and the checksum table. uname -m says x86_64 and aarch64;
// the Go runtime says amd64 and arm64; macOS tooling says arm64 for Apple
// silicon. This is a fixed alias table, not a fuzzy matcher. Unknown
// spellings are returned lowercased and unchanged so that lookup failures
// report what the host actually said.
func NormalizeArch(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch lower {
	case "amd64", "x86_64", "x64":
		return "x86_64"
	case "arm64", "aarch64":
		return "aarch64"
	default:
		return lower
	}
}

// Load parses and validates the embedded manifest.
func Load() (*Manifest, error) {
	return Parse(embeddedManifest)
}

// Parse validates raw manifest JSON against the embedded schema plus the
// digest invariants the schema cannot express, and returns the table.
func Parse(raw []byte) (*Manifest, error) {
	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("checksum manifest: %w", err)
	}

	var tools map[string]Entry
	if err := json.Unmarshal(raw, &tools); err != nil {
		return nil, fmt.Errorf("checksum manifest: %w", err)
	}

	for tool, e := range tools {
		seen := make(map[string]string, len(e.Checksums))
		for arch, digest := range e.Checksums {
			if !isLowerHexDigest(digest) {
				return nil, fmt.Errorf("checksum manifest: %s/%s: digest must be 64 lowercase hex characters", tool, arch)
			}
			if prev, dup := seen[digest]; dup {
				return nil, fmt.Errorf("checksum manifest: %s: %s and %s share a digest", tool, prev, arch)
			}
			seen[digest] = arch
		}
		for _, arch := range e.Unsupported {
			if _, both := e.Checksums[arch]; both {
				return nil, fmt.Errorf("checksum manifest: %s: %s is both pinned and unsupported", tool, arch)
			}
		}
	}

	return &Manifest{Tools: tools}, nil
}

func validateSchema(raw []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(manifestSchema))
	if err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("checksums.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("register schema: %w", err)
	}
	schema, err := compiler.Compile("checksums.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}
	return schema.Validate(instance)
}

// Lookup resolves the pinned digest and download URL for a tool on the given
// architecture. arch may be any spelling NormalizeArch accepts. No network
// I/O happens here; a failed lookup means the fetcher never runs.
func (m *Manifest) Lookup(tool, arch string) (Pin, error) {
	e, ok := m.Tools[tool]
	if !ok {
		return Pin{}, fmt.Errorf("no pinned release for tool %q", tool)
	}

	canonical := NormalizeArch(arch)
	for _, denied := range e.Unsupported {
		if canonical == denied {
			return Pin{}, fmt.Errorf("%w: %s %s on %s", ErrNoChecksum, tool, e.Version, canonical)
		}
	}
	digest, ok := e.Checksums[canonical]
	if !ok {
		return Pin{}, fmt.Errorf("%w: %s", ErrUnsupportedArch, canonical)
	}

	base := strings.TrimRight(e.ReleaseHost, "/")
	p := Pin{
		Tool:    tool,
		Version: e.Version,
		Arch:    canonical,
		Digest:  digest,
		URL:     fmt.Sprintf("%s/%s/%s.%s", base, e.Version, e.Artifact, canonical),
	}
	if e.MinisignKey != "" {
		p.MinisignKey = e.MinisignKey
		p.ManifestURL = fmt.Sprintf("%s/%s/SHA256SUMS", base, e.Version)
	}
	return p, nil
}

func isLowerHexDigest(value string) bool {
	if len(value) != 64 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') {
			return false
		}
	}
	return true
}

package pin

import (
	"errors"
	"strings"
	"testing"
)

func manifestJSON(t *testing.T, checksums, unsupported string) []byte {
	t.Helper()
	return []byte(`{
		"ttyd": {
			"version": "1.7.7",
			"releaseHost": "https://releases.example.com/ttyd",
			"artifact": "ttyd",
			"checksums": {` + checksums + `},
			"unsupported": [` + unsupported + `]
		}
	}`)
}

func TestParse(t *testing.T) {
	t.Parallel()

	digestA := strings.Repeat("a", 64)
	digestB := strings.Repeat("b", 64)

	tests := []struct {
		name        string
		checksums   string
		unsupported string
		wantErr     string
	}{
		{
			name:        "valid",
			checksums:   `"x86_64": "` + digestA + `", "aarch64": "` + digestB + `"`,
			unsupported: `"armv7l"`,
		},
		{
			name:      "uppercase digest rejected",
			checksums: `"x86_64": "` + strings.ToUpper(digestA) + `"`,
			wantErr:   "manifest",
		},
		{
			name:      "short digest rejected",
			checksums: `"x86_64": "abc123"`,
			wantErr:   "manifest",
		},
		{
			name:      "shared digest rejected",
			checksums: `"x86_64": "` + digestA + `", "aarch64": "` + digestA + `"`,
			wantErr:   "share a digest",
		},
		{
			name:        "arch both pinned and unsupported",
			checksums:   `"x86_64": "` + digestA + `"`,
			unsupported: `"x86_64"`,
			wantErr:     "both pinned and unsupported",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(manifestJSON(t, tc.checksums, tc.unsupported))
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error: got %q want substring %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestParseRejectsPlainHTTPHost(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"ttyd": {
			"version": "1.7.7",
			"releaseHost": "http://releases.example.com/ttyd",
			"artifact": "ttyd",
			"checksums": {"x86_64": "` + strings.Repeat("a", 64) + `"}
		}
	}`)
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected schema violation for http:// release host")
	}
}

func TestNormalizeArch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"x86_64", "x86_64"},
		{"amd64", "x86_64"},
		{"x64", "x86_64"},
		{"arm64", "aarch64"},
		{"aarch64", "aarch64"},
		{"ARM64", "aarch64"},
		{"armv7l", "armv7l"},
		{"riscv64", "riscv64"},
	}
	for _, tc := range tests {
		if got := NormalizeArch(tc.raw); got != tc.want {
			t.Errorf("NormalizeArch(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	digestA := strings.Repeat("a", 64)
	digestB := strings.Repeat("b", 64)
	m, err := Parse(manifestJSON(t,
		`"x86_64": "`+digestA+`", "aarch64": "`+digestB+`"`,
		`"armv7l", "armv6l"`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	t.Run("x86_64", func(t *testing.T) {
		p, err := m.Lookup("ttyd", "x86_64")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if p.Digest != digestA {
			t.Fatalf("digest: got %q", p.Digest)
		}
		if want := "https://releases.example.com/ttyd/1.7.7/ttyd.x86_64"; p.URL != want {
			t.Fatalf("url: got %q want %q", p.URL, want)
		}
	})

	t.Run("arm64 alias resolves to aarch64", func(t *testing.T) {
		p, err := m.Lookup("ttyd", "arm64")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if p.Arch != "aarch64" || p.Digest != digestB {
			t.Fatalf("got arch %q digest %q", p.Arch, p.Digest)
		}
	})

	t.Run("policy-excluded arch", func(t *testing.T) {
		_, err := m.Lookup("ttyd", "armv7l")
		if !errors.Is(err, ErrNoChecksum) {
			t.Fatalf("got %v, want ErrNoChecksum", err)
		}
	})

	t.Run("unknown arch", func(t *testing.T) {
		_, err := m.Lookup("ttyd", "riscv64")
		if !errors.Is(err, ErrUnsupportedArch) {
			t.Fatalf("got %v, want ErrUnsupportedArch", err)
		}
	})

	t.Run("minisign key propagates", func(t *testing.T) {
		signed, err := Parse([]byte(`{
			"ttyd": {
				"version": "1.7.7",
				"releaseHost": "https://releases.example.com/ttyd",
				"artifact": "ttyd",
				"checksums": {"x86_64": "` + digestA + `"},
				"minisignKey": "RWTestKey"
			}
		}`))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		p, err := signed.Lookup("ttyd", "x86_64")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if p.MinisignKey != "RWTestKey" {
			t.Fatalf("minisign key: got %q", p.MinisignKey)
		}
		if want := "https://releases.example.com/ttyd/1.7.7/SHA256SUMS"; p.ManifestURL != want {
			t.Fatalf("manifest url: got %q want %q", p.ManifestURL, want)
		}
	})

	t.Run("unknown tool", func(t *testing.T) {
		if _, err := m.Lookup("mosh", "x86_64"); err == nil {
			t.Fatal("expected error for unknown tool")
		}
	})
}

func TestLoadEmbedded(t *testing.T) {
	t.Parallel()

	m, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := m.Lookup("ttyd", "x86_64"); err != nil {
		t.Fatalf("embedded manifest has no ttyd x86_64 pin: %v", err)
	}
	if _, err := m.Lookup("ttyd", "armv7l"); !errors.Is(err, ErrNoChecksum) {
		t.Fatalf("armv7l: got %v, want ErrNoChecksum", err)
	}
}

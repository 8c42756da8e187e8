// Package fetch downloads pinned release binaries and installs them only
// after their SHA-256 digest matches the pinned value.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/perchterm/perch/internal/pin"
	"github.com/perchterm/perch/internal/verify"
)

const (
	defaultTimeout  = 2 * time.Minute
	defaultAttempts = 3
	defaultBackoff  = 500 * time.Millisecond
)

// Options configures one acquisition.
type Options struct {
	Pin      pin.Pin
	DestPath string // final executable path

	// Client overrides the HTTP client; nil gets a client with a bounded
	// timeout so a stalled download surfaces as ErrDownloadFailed.
	Client *http.Client

	// Attempts bounds retries for transport failures. Zero means the
	// default of 3. Integrity mismatches are never retried.
	Attempts int
	Backoff  time.Duration

	// Progress receives human-readable status lines; nil discards them.
	Progress io.Writer
}

// Result reports the outcome of a successful acquisition.
type Result struct {
	Path             string
	AlreadyInstalled bool
}

// AcquireVerifiedBinary downloads the pinned artifact into a private temp
// directory, verifies its SHA-256 digest against the pin, and promotes it to
// DestPath with the executable bit set.
//
// If an executable already exists at DestPath the whole operation
// short-circuits: that binary was verified when it was installed, so it is
// neither re-downloaded nor re-hashed. On any failure the temp directory is
// removed and DestPath is left exactly as it was.
func AcquireVerifiedBinary(ctx context.Context, opts Options) (Result, error) {
	if isExecutable(opts.DestPath) {
		fmt.Fprintf(progress(opts), "%s already installed at %s, skipping download\n", opts.Pin.Tool, opts.DestPath)
		return Result{Path: opts.DestPath, AlreadyInstalled: true}, nil
	}
	if !verify.IsHexDigest(opts.Pin.Digest, 64) {
		return Result{}, fmt.Errorf("pinned digest for %s/%s is not 64 hex characters", opts.Pin.Tool, opts.Pin.Arch)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	tmpDir, err := os.MkdirTemp("", "perch-fetch-*")
	if err != nil {
		return Result{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	fmt.Fprintf(progress(opts), "Downloading %s %s (%s)\n", opts.Pin.Tool, opts.Pin.Version, opts.Pin.URL)
	tmpPath := filepath.Join(tmpDir, opts.Pin.Tool)
	if err := downloadWithRetry(ctx, client, opts, opts.Pin.URL, tmpPath); err != nil {
		return Result{}, err
	}

	actual, err := verify.SHA256File(tmpPath)
	if err != nil {
		return Result{}, err
	}
	if actual != opts.Pin.Digest {
		// Remove eagerly rather than relying on the deferred cleanup; the
		// tampered bytes should not outlive this check.
		_ = os.Remove(tmpPath)
		return Result{}, &IntegrityError{URL: opts.Pin.URL, Expected: opts.Pin.Digest, Actual: actual}
	}
	fmt.Fprintf(progress(opts), "Checksum verified OK (sha256 %s)\n", actual)

	if opts.Pin.MinisignKey != "" {
		if err := verifyUpstreamManifest(ctx, client, opts); err != nil {
			return Result{}, err
		}
	}

	if err := promote(tmpPath, opts.DestPath); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(progress(opts), "Installed %s to %s\n", opts.Pin.Tool, opts.DestPath)
	return Result{Path: opts.DestPath}, nil
}

func downloadWithRetry(ctx context.Context, client *http.Client, opts Options, url, path string) error {
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			fmt.Fprintf(progress(opts), "Retrying download (%d/%d) after %v\n", i+1, attempts, backoff)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrDownloadFailed, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if lastErr = download(ctx, client, url, path); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrDownloadFailed, lastErr)
}

func download(ctx context.Context, client *http.Client, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}

	// #nosec G304 -- path is inside our MkdirTemp dir
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// verifyUpstreamManifest downloads the release checksum manifest plus its
// minisign signature, checks the signature, and confirms the manifest lists
// the same digest we have pinned.
func verifyUpstreamManifest(ctx context.Context, client *http.Client, opts Options) error {
	manifestURL := opts.Pin.ManifestURL
	if manifestURL == "" {
		return fmt.Errorf("minisign key configured but no manifest URL for %s", opts.Pin.Tool)
	}

	manifest, err := fetchBytes(ctx, client, manifestURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	sig, err := fetchBytes(ctx, client, manifestURL+".minisig")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	if err := verify.MinisignManifest(manifest, sig, opts.Pin.MinisignKey); err != nil {
		return err
	}

	artifactName := fmt.Sprintf("%s.%s", opts.Pin.Tool, opts.Pin.Arch)
	published, err := verify.ExtractChecksum(manifest, artifactName)
	if err != nil {
		return err
	}
	if published != opts.Pin.Digest {
		return fmt.Errorf("%w: upstream manifest lists %s for %s, pinned %s",
			ErrIntegrityMismatch, published, artifactName, opts.Pin.Digest)
	}
	fmt.Fprintf(progress(opts), "Upstream manifest signature verified OK\n")
	return nil
}

func fetchBytes(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// promote moves the verified temp file to dest and marks it executable.
// Rename is atomic on the same filesystem; when the temp dir lives on a
// different mount the fallback copies into dest's directory first so the
// final rename is still atomic.
func promote(tmpPath, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(dest), err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		staging, cErr := copyToDir(tmpPath, filepath.Dir(dest))
		if cErr != nil {
			return fmt.Errorf("install to %s: %w", dest, cErr)
		}
		if rErr := os.Rename(staging, dest); rErr != nil {
			_ = os.Remove(staging)
			return fmt.Errorf("install to %s: %w", dest, rErr)
		}
	}
	if err := os.Chmod(dest, 0o755); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	return nil
}

func copyToDir(src, dir string) (string, error) {
	// #nosec G304 -- src is inside our MkdirTemp dir
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp(dir, ".perch-install-*")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o100 != 0
}

func progress(opts Options) io.Writer {
	if opts.Progress != nil {
		return opts.Progress
	}
	return io.Discard
}

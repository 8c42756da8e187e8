// Command pin-checksums computes the sha256 digests for downloaded release
// artifacts and prints a checksums block ready to paste into
// internal/pin/checksums.json.
//
// Usage: download ttyd.x86_64, ttyd.aarch64 etc. into a directory, then
//
//	go run ./scripts/cmd/pin-checksums -dir dist -artifact ttyd
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func main() {
	dir := flag.String("dir", "dist", "directory containing downloaded release artifacts")
	artifact := flag.String("artifact", "ttyd", "artifact base name (files look like <artifact>.<arch>)")
	flag.Parse()

	if err := run(*dir, *artifact); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(dir, artifact string) error {
	if strings.TrimSpace(artifact) == "" {
		return errors.New("artifact name is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	prefix := artifact + "."
	byArch := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		arch := strings.TrimPrefix(entry.Name(), prefix)
		digest, err := fileDigest(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		byArch[arch] = digest
	}
	if len(byArch) == 0 {
		return fmt.Errorf("no %s.<arch> artifacts found in %s", artifact, dir)
	}

	arches := make([]string, 0, len(byArch))
	for arch := range byArch {
		arches = append(arches, arch)
	}
	sort.Strings(arches)

	fmt.Println(`"checksums": {`)
	for i, arch := range arches {
		comma := ","
		if i == len(arches)-1 {
			comma = ""
		}
		fmt.Printf("  %q: %q%s\n", arch, byArch[arch], comma)
	}
	fmt.Println("}")
	return nil
}

func fileDigest(path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- maintainer tool reading local artifacts
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

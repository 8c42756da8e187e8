// Package hostenv answers questions about the machine perch is installing
// onto: OS and CPU architecture, which package manager is available, and
// whether the install directory would reject executables.
package hostenv

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Platform describes the host for installation decisions.
type Platform struct {
	OS   string // runtime.GOOS
	Arch string // raw architecture spelling; callers normalize via pin.NormalizeArch
	Pkg  string // "apt", "dnf", "brew", or "" when none was found
}

// Detect inspects the running host. The architecture prefers uname -m when
// available because that is the spelling upstream artifact names use
// (x86_64, aarch64, armv7l); runtime.GOARCH is the fallback.
func Detect() Platform {
	p := Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
	if out, err := exec.Command("uname", "-m").Output(); err == nil {
		if m := strings.TrimSpace(string(out)); m != "" {
			p.Arch = m
		}
	}
	for _, candidate := range []string{"apt-get", "dnf", "brew"} {
		if _, err := exec.LookPath(candidate); err == nil {
			p.Pkg = strings.TrimSuffix(candidate, "-get")
			break
		}
	}
	return p
}

// InstallArgs returns the argv for installing packages with the detected
// package manager. Empty when no manager was found.
func (p Platform) InstallArgs(pkgs ...string) []string {
	switch p.Pkg {
	case "apt":
		return append([]string{"apt-get", "install", "-y"}, pkgs...)
	case "dnf":
		return append([]string{"dnf", "install", "-y"}, pkgs...)
	case "brew":
		return append([]string{"brew", "install"}, pkgs...)
	default:
		return nil
	}
}

// BinDir is the per-user executable directory perch installs binaries into.
func BinDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "bin"), nil
}

// ConfigDir is where perch keeps generated credentials and state.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "perch"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "perch"), nil
}

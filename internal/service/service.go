// Package service renders and installs the unit that keeps the ttyd web
// terminal running: a systemd user unit on Linux, a launchd agent on macOS.
//
// Templating is plain placeholder substitution over machine-generated values
// (paths, a port number, a validated session name).
package service

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/perchterm/perch/internal/ident"
)

//go:embed templates/perch-ttyd.service
var systemdUnit string

//go:embed templates/perch-ttyd.plist
var launchdPlist string

// DefaultPort is where ttyd listens. Reached over the tailnet, not exposed
// publicly.
const DefaultPort = 7681

// Params fills the unit template.
type Params struct {
	TtydPath   string
	Credential string // user:password for ttyd -c
	Port       int
	Session    string // tmux session the web terminal attaches to
}

// Render produces the unit file name and contents for the given OS.
func Render(goos string, p Params) (string, string, error) {
	if p.TtydPath == "" || p.Credential == "" {
		return "", "", fmt.Errorf("service params incomplete: ttyd path and credential are required")
	}
	if p.Port == 0 {
		p.Port = DefaultPort
	}
	if p.Session == "" {
		p.Session = "main"
	}
	// The session name lands in an ExecStart line; gate it like any other.
	if err := ident.Check(p.Session); err != nil {
		return "", "", err
	}

	repl := strings.NewReplacer(
		"{{TTYD_PATH}}", p.TtydPath,
		"{{PORT}}", strconv.Itoa(p.Port),
		"{{CREDENTIAL}}", p.Credential,
		"{{SESSION}}", p.Session,
	)

	switch goos {
	case "linux":
		return "perch-ttyd.service", repl.Replace(systemdUnit), nil
	case "darwin":
		return "io.perch.ttyd.plist", repl.Replace(launchdPlist), nil
	default:
		return "", "", fmt.Errorf("no service manager support for %s", goos)
	}
}

// UnitDir is where the rendered unit belongs for the given OS.
func UnitDir(goos string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch goos {
	case "linux":
		return filepath.Join(home, ".config", "systemd", "user"), nil
	case "darwin":
		return filepath.Join(home, "Library", "LaunchAgents"), nil
	default:
		return "", fmt.Errorf("no service manager support for %s", goos)
	}
}

// Install writes the rendered unit, returning its path and whether the file
// changed. Unchanged content is left alone so re-running install does not
// dirty mtimes or trigger needless reloads.
func Install(goos string, dir string, p Params) (string, bool, error) {
	name, content, err := Render(goos, p)
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)

	if existing, err := os.ReadFile(path); err == nil && string(existing) == content { // #nosec G304 -- unit path we computed
		return path, false, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("write unit %s: %w", path, err)
	}
	return path, true, nil
}

// ActivateArgs returns the argv sequences that load and start the unit.
func ActivateArgs(goos, unitPath string) [][]string {
	switch goos {
	case "linux":
		return [][]string{
			{"systemctl", "--user", "daemon-reload"},
			{"systemctl", "--user", "enable", "--now", "perch-ttyd.service"},
		}
	case "darwin":
		return [][]string{
			{"launchctl", "unload", unitPath},
			{"launchctl", "load", "-w", unitPath},
		}
	default:
		return nil
	}
}

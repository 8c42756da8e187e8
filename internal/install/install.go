// Package install runs the sequential setup flow: multiplexer and transport
// packages, the verified ttyd binary, the web-terminal credential, and the
// service unit that keeps ttyd alive.
//
// Every step is idempotent; re-running install after a partial failure picks
// up where the previous run left off.
package install

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/perchterm/perch/internal/creds"
	"github.com/perchterm/perch/internal/fetch"
	"github.com/perchterm/perch/internal/hostenv"
	"github.com/perchterm/perch/internal/pin"
	"github.com/perchterm/perch/internal/service"
)

// Env carries everything the steps need. Exec and LookPath are injectable so
// tests can run the flow without touching the host.
type Env struct {
	Platform  hostenv.Platform
	Manifest  *pin.Manifest
	BinDir    string
	ConfigDir string
	Port      int
	Session   string
	UnitDir   string // empty means the OS default
	Out       io.Writer

	Exec     func(ctx context.Context, argv []string) error
	LookPath func(name string) (string, error)
}

func (e *Env) defaults() {
	if e.Out == nil {
		e.Out = io.Discard
	}
	if e.Port == 0 {
		e.Port = service.DefaultPort
	}
	if e.Session == "" {
		e.Session = "main"
	}
	if e.LookPath == nil {
		e.LookPath = exec.LookPath
	}
	if e.Exec == nil {
		e.Exec = func(ctx context.Context, argv []string) error {
			cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
			cmd.Stdout = e.Out
			cmd.Stderr = e.Out
			if err := cmd.Run(); err != nil {
				return fmt.Errorf("%s: %w", argv[0], err)
			}
			return nil
		}
	}
}

// Run executes the install steps in order, stopping at the first failure.
func Run(ctx context.Context, env *Env) error {
	env.defaults()

	steps := []struct {
		name string
		run  func(context.Context, *Env) error
	}{
		{"packages", ensurePackages},
		{"ttyd", fetchTtyd},
		{"credentials", ensureCredential},
		{"service", installService},
	}
	for _, s := range steps {
		fmt.Fprintf(env.Out, "==> %s\n", s.name)
		if err := s.run(ctx, env); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return nil
}

// ensurePackages installs tmux and mosh through the host package manager,
// skipping anything already on PATH.
func ensurePackages(ctx context.Context, env *Env) error {
	var missing []string
	for _, bin := range []string{"tmux", "mosh-server"} {
		if _, err := env.LookPath(bin); err != nil {
			pkg := bin
			if bin == "mosh-server" {
				pkg = "mosh"
			}
			missing = append(missing, pkg)
		}
	}
	if len(missing) == 0 {
		fmt.Fprintln(env.Out, "tmux and mosh already present")
		return nil
	}

	argv := env.Platform.InstallArgs(missing...)
	if argv == nil {
		return fmt.Errorf("no supported package manager found to install %v", missing)
	}
	fmt.Fprintf(env.Out, "Installing %v via %s\n", missing, argv[0])
	return env.Exec(ctx, argv)
}

// fetchTtyd acquires the pinned ttyd binary into the per-user bin dir.
func fetchTtyd(ctx context.Context, env *Env) error {
	dest := filepath.Join(env.BinDir, "ttyd")
	if hostenv.IsNoExecMount(dest) {
		return fmt.Errorf("%s is on a noexec mount; choose a different --bin-dir", env.BinDir)
	}

	p, err := env.Manifest.Lookup("ttyd", env.Platform.Arch)
	if err != nil {
		return err
	}

	_, err = fetch.AcquireVerifiedBinary(ctx, fetch.Options{
		Pin:      p,
		DestPath: dest,
		Progress: env.Out,
	})
	return err
}

func ensureCredential(_ context.Context, env *Env) error {
	cred, path, created, err := creds.Ensure(env.ConfigDir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(env.Out, "Generated web terminal credential for user %q in %s\n", cred.User, path)
	} else {
		fmt.Fprintf(env.Out, "Keeping existing credential in %s\n", path)
	}
	return nil
}

func installService(ctx context.Context, env *Env) error {
	cred, _, _, err := creds.Ensure(env.ConfigDir)
	if err != nil {
		return err
	}

	dir := env.UnitDir
	if dir == "" {
		dir, err = service.UnitDir(env.Platform.OS)
		if err != nil {
			return err
		}
	}
	path, changed, err := service.Install(env.Platform.OS, dir, service.Params{
		TtydPath:   filepath.Join(env.BinDir, "ttyd"),
		Credential: cred.BasicAuth(),
		Port:       env.Port,
		Session:    env.Session,
	})
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(env.Out, "Service unit %s unchanged\n", path)
		return nil
	}

	fmt.Fprintf(env.Out, "Wrote service unit %s\n", path)
	for _, argv := range service.ActivateArgs(env.Platform.OS, path) {
		if err := env.Exec(ctx, argv); err != nil {
			// launchctl unload fails when the agent was never loaded; that
			// is the expected first-run case, keep going.
			if env.Platform.OS == "darwin" && argv[1] == "unload" {
				continue
			}
			return err
		}
	}
	return nil
}

// DefaultEnv builds an Env from the live host.
func DefaultEnv(out io.Writer) (*Env, error) {
	manifest, err := pin.Load()
	if err != nil {
		return nil, err
	}
	binDir, err := hostenv.BinDir()
	if err != nil {
		return nil, err
	}
	cfgDir, err := hostenv.ConfigDir()
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}
	return &Env{
		Platform:  hostenv.Detect(),
		Manifest:  manifest,
		BinDir:    binDir,
		ConfigDir: cfgDir,
		Out:       out,
	}, nil
}

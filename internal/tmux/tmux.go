// Package tmux wraps the tmux session operations perch exposes.
//
// Every session name entering this package passes the ident gate first, and
// names are always handed to tmux as discrete argv elements, never through a
// shell.
package tmux

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/perchterm/perch/internal/ident"
)

var (
	ErrNoServer        = errors.New("no tmux server running")
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one row of list-sessions output.
type Session struct {
	Name     string
	Created  time.Time
	Attached bool
}

// Tmux wraps tmux invocations.
type Tmux struct {
	bin string
}

func New() *Tmux {
	return &Tmux{bin: "tmux"}
}

// run executes a tmux command and returns trimmed stdout.
func (t *Tmux) run(args ...string) (string, error) {
	cmd := exec.Command(t.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", wrapError(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// wrapError maps tmux stderr to sentinel errors where the text is stable.
func wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)

	if strings.Contains(stderr, "no server running") ||
		strings.Contains(stderr, "error connecting to") ||
		strings.Contains(stderr, "server exited unexpectedly") {
		return ErrNoServer
	}
	if strings.Contains(stderr, "duplicate session") {
		return ErrSessionExists
	}
	if strings.Contains(stderr, "session not found") ||
		strings.Contains(stderr, "can't find session") {
		return ErrSessionNotFound
	}

	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

// NewSession creates a new detached session.
func (t *Tmux) NewSession(name, workDir string) error {
	if err := ident.Check(name); err != nil {
		return err
	}
	args := []string{"new-session", "-d", "-s", name}
	if workDir != "" {
		args = append(args, "-c", workDir)
	}
	_, err := t.run(args...)
	return err
}

// HasSession reports whether a session with the given name exists.
func (t *Tmux) HasSession(name string) (bool, error) {
	if err := ident.Check(name); err != nil {
		return false, err
	}
	_, err := t.run("has-session", "-t", name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNoServer):
		return false, nil
	default:
		return false, err
	}
}

// ListSessions returns all sessions on the default server. A missing server
// is an empty list, not an error.
func (t *Tmux) ListSessions() ([]Session, error) {
	out, err := t.run("list-sessions", "-F", "#{session_name}\t#{session_created}\t#{session_attached}")
	if errors.Is(err, ErrNoServer) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseSessions(out), nil
}

func parseSessions(out string) []Session {
	var sessions []Session
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		s := Session{Name: fields[0]}
		if len(fields) > 1 {
			if unix, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				s.Created = time.Unix(unix, 0)
			}
		}
		if len(fields) > 2 {
			s.Attached = fields[2] != "0" && fields[2] != ""
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// Attach replaces the tmux client streams with the caller's terminal and
// blocks until the client detaches.
func (t *Tmux) Attach(name string) error {
	if err := ident.Check(name); err != nil {
		return err
	}
	cmd := exec.Command(t.bin, "attach-session", "-t", name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tmux attach-session: %w", err)
	}
	return nil
}

// Kill terminates a session.
func (t *Tmux) Kill(name string) error {
	if err := ident.Check(name); err != nil {
		return err
	}
	_, err := t.run("kill-session", "-t", name)
	return err
}

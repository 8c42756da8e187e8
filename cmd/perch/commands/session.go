package commands

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/perchterm/perch/internal/ident"
	"github.com/perchterm/perch/internal/tmux"
)

// nameArg validates the session name before anything else runs. Rejections
// print a short message; the name never reaches tmux.
func nameArg(args []string) (string, error) {
	name := args[0]
	if err := ident.Check(name); err != nil {
		if errors.Is(err, ident.ErrInvalidName) {
			fmt.Fprintf(os.Stderr, "invalid session name %q: use 1-%d characters of letters, digits, _ or -\n", name, ident.MaxLen)
		}
		return "", err
	}
	return name, nil
}

func sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persistent terminal sessions",
	}
	cmd.AddCommand(sessionNewCmd(), sessionListCmd(), sessionAttachCmd(), sessionKillCmd())
	return cmd
}

func sessionNewCmd() *cobra.Command {
	var workDir string

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a detached persistent session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := nameArg(args)
			if err != nil {
				return err
			}
			if err := tmux.New().NewSession(name, workDir); err != nil {
				if errors.Is(err, tmux.ErrSessionExists) {
					return fmt.Errorf("session %q already exists (try: perch session attach %s)", name, name)
				}
				return err
			}
			fmt.Printf("Created session %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&workDir, "dir", "d", "", "working directory for the new session")
	return cmd
}

func sessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List persistent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := tmux.New().ListSessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCREATED\tATTACHED")
			for _, s := range sessions {
				attached := ""
				if s.Attached {
					attached = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Created.Format("2006-01-02 15:04"), attached)
			}
			return w.Flush()
		},
	}
}

func sessionAttachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach [name]",
		Short: "Attach to a session, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := nameArg(args)
			if err != nil {
				return err
			}
			t := tmux.New()
			exists, err := t.HasSession(name)
			if err != nil {
				return err
			}
			if !exists {
				if err := t.NewSession(name, ""); err != nil {
					return err
				}
			}
			return t.Attach(name)
		},
	}
}

func sessionKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill [name]",
		Short: "Terminate a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := nameArg(args)
			if err != nil {
				return err
			}
			if err := tmux.New().Kill(name); err != nil {
				if errors.Is(err, tmux.ErrSessionNotFound) || errors.Is(err, tmux.ErrNoServer) {
					return fmt.Errorf("no session named %q", name)
				}
				return err
			}
			fmt.Printf("Killed session %s\n", name)
			return nil
		},
	}
}

package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/perchterm/perch/internal/install"
)

func installCmd() *cobra.Command {
	var (
		yes     bool
		port    int
		session string
		binDir  string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install tmux, mosh and the verified ttyd web terminal",
		Long: `Runs the full setup on this machine:

  1. Installs tmux and mosh via apt, dnf or brew if missing
  2. Downloads the pinned ttyd release and verifies its SHA-256 checksum
     before it is placed in the per-user bin directory
  3. Generates a web terminal credential (kept across re-runs)
  4. Writes and activates the service unit that keeps ttyd running

Safe to re-run; completed steps are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := install.DefaultEnv(os.Stderr)
			if err != nil {
				return err
			}
			env.Port = port
			env.Session = session
			if binDir != "" {
				env.BinDir = binDir
			}

			if !yes && term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprintf(os.Stderr, "Install perch components to %s? [y/N] ", env.BinDir)
				line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "y", "yes":
				default:
					return fmt.Errorf("aborted")
				}
			}

			if err := install.Run(cmd.Context(), env); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "\nInstall complete. Web terminal on port %d, reachable over your tailnet.\n", env.Port)
			fmt.Fprintln(os.Stderr, "Run 'perch doctor' to verify everything is healthy.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().IntVar(&port, "port", 0, "ttyd listen port (default 7681)")
	cmd.Flags().StringVar(&session, "session", "main", "tmux session the web terminal attaches to")
	cmd.Flags().StringVar(&binDir, "bin-dir", "", "install directory for the ttyd binary (default ~/.local/bin)")
	return cmd
}

package commands

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/perchterm/perch/internal/creds"
	"github.com/perchterm/perch/internal/hostenv"
	"github.com/perchterm/perch/internal/pin"
	"github.com/perchterm/perch/internal/service"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the perch components are present and healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			platform := hostenv.Detect()
			fmt.Printf("host: %s/%s (package manager: %s)\n\n",
				platform.OS, pin.NormalizeArch(platform.Arch), orNone(platform.Pkg))

			failures := 0
			check := func(label string, ok bool, hint string) {
				status := "ok"
				if !ok {
					status = "MISSING"
					failures++
				}
				fmt.Printf("%-28s %s\n", label, status)
				if !ok && hint != "" {
					fmt.Printf("%-28s   %s\n", "", hint)
				}
			}

			_, tmuxErr := exec.LookPath("tmux")
			check("tmux", tmuxErr == nil, "run: perch install")

			_, moshErr := exec.LookPath("mosh-server")
			check("mosh", moshErr == nil, "run: perch install")

			binDir, err := hostenv.BinDir()
			if err != nil {
				return err
			}
			ttydPath := filepath.Join(binDir, "ttyd")
			info, statErr := os.Stat(ttydPath)
			check("ttyd "+ttydPath, statErr == nil && info.Mode().Perm()&0o100 != 0, "run: perch install")

			cfgDir, err := hostenv.ConfigDir()
			if err != nil {
				return err
			}
			_, credErr := os.Stat(filepath.Join(cfgDir, creds.FileName))
			check("web terminal credential", credErr == nil, "run: perch install")

			if unitDir, dirErr := service.UnitDir(platform.OS); dirErr == nil {
				name := "perch-ttyd.service"
				if platform.OS == "darwin" {
					name = "io.perch.ttyd.plist"
				}
				_, unitErr := os.Stat(filepath.Join(unitDir, name))
				check("service unit", unitErr == nil, "run: perch install")
			}

			_, tsErr := exec.LookPath("tailscale")
			check("tailscale", tsErr == nil, "install from https://tailscale.com/download")

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			fmt.Println("\nAll checks passed.")
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

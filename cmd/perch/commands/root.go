package commands

import (
	"github.com/spf13/cobra"
)

var version = "dev"

func Execute() error {
	root := &cobra.Command{
		Use:           "perch",
		Short:         "Persistent remote terminal access over your tailnet",
		Long:          "perch sets up tmux + mosh + a ttyd web terminal on one machine,\nreached over Tailscale, and manages the persistent sessions behind them.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(installCmd(), sessionCmd(), doctorCmd(), versionCmd())
	return root.Execute()
}

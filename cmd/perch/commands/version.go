package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the perch version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("perch", version)
		},
	}
}

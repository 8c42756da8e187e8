package main

import (
	"os"

	"github.com/perchterm/perch/cmd/perch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

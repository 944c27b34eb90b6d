package main

import (
	"os"

	"github.com/aleb2000/DesktopFileEditor/internal/cli"
)

// Version is set at build time
var Version = "dev"

func main() {
	rootCmd := cli.NewRootCommand(Version)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

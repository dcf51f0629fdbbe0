package main

import (
	"fmt"
	"os"

	"github.com/soundlab/acoustics-go/cmd"
	"github.com/soundlab/acoustics-go/internal/conf"
	"github.com/soundlab/acoustics-go/internal/logging"
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Init(settings.Debug)

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

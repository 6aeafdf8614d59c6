package main

import (
	"os"

	"github.com/sweeplab/sweep/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}

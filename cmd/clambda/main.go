package main

import (
	"os"

	"github.com/psantana5/clusterlambda/cmd/clambda/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

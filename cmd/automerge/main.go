package main

import (
	"os"

	"github.com/idlemerge/automerge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

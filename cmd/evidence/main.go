package main

import (
	"os"

	"github.com/realvibe/evidence-engine/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

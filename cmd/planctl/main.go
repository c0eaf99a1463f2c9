package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"travel-planner/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

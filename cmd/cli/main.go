// Package main is the entry point for the bridgectl CLI.
// The CLI is the operator terminal tool for interacting with the talentbridge API.
package main

import (
	"os"

	"talentbridge/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

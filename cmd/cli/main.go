// Package main is the entry point for the pricing pipeline CLI.
package main

import (
	"os"

	"github.com/santoshpalla27/aws-frontend-estimation/cmd/cli/cmd"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

func main() {
	err := cmd.Execute()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// Package main is the entry point for the viveoctl CLI, the terminal tool
// for submitting video generation jobs and inspecting the credit wallet.
package main

import (
	"os"

	"viveo/cmd/viveoctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main is the entry point for the taskforge CLI tool.
package main

import (
	"os"

	"github.com/taskforge-hq/taskforge/cmd/forgectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main is the entry point for the lineagekit CLI.
package main

import (
	"os"

	"github.com/lineagekit/lineagekit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

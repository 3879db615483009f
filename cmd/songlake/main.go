// Package main provides the songlake command.
package main

import (
	"os"

	"github.com/leapstack-labs/songlake/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// Package main provides the entry point for the ctxd CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/ctxd/cmd/ctxd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the passmate CLI, a single-user encrypted secrets
// store whose database can be replicated across hosts and merged without
// coordination.
package main

import (
	"fmt"
	"os"
)

// Exit codes.
const (
	exitSuccess  = 0
	exitUserErr  = 1
	exitSysError = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitUserErr)
	}
}

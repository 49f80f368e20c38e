// Package main provides build targets for the passmate project using Mage.
//
// Usage:
//
//	mage build    Compile the passmate binary to bin/
//	mage test     Run all tests (unit + integration)
//	mage lint     Run golangci-lint
//	mage clean    Remove build artifacts
//	mage install  Install passmate to GOPATH/bin

//go:build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "passmate"
	binaryDir  = "bin"
	cmdDir     = "./cmd/passmate"
)

// Build compiles the passmate binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	return sh.Rm(binaryDir)
}

// Install builds and installs passmate to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.RunV("go", "install", cmdDir)
}

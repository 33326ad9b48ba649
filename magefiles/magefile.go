// Package main provides build targets for the strata project using Mage.
//
// Usage:
//
//	mage build          Compile strata binary to bin/
//	mage test           Run all tests
//	mage testCoverage   Run tests with coverage report
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install strata to GOPATH/bin

//go:build mage
// +build mage

package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"
)

const (
	binaryName = "strata"
	binaryDir  = "bin"
	cmdDir     = "./cmd/strata"
)

// Build compiles the strata binary to bin/.
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

// TestCoverage runs all tests with a coverage profile and prints the summary.
func TestCoverage() error {
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func=coverage.out")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.Rm("coverage.out")
}

// Install installs the strata binary to GOPATH/bin.
func Install() error {
	return sh.RunV("go", "install", cmdDir)
}

//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// run executes the built CLI binary with the given arguments.
func run(args ...string) error {
	bin := filepath.Join(binDir, binName)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", binName, args[0], err)
	}
	return nil
}

// Acquire downloads SBML models from the BioModels curated branch.
func Acquire() error {
	mg.Deps(Build)
	return run("acquire")
}

// Extract produces template model records from downloaded SBML documents.
func Extract() error {
	mg.Deps(Build)
	return run("extract")
}

// Index ingests extraction records into the SQLite template store.
func Index() error {
	mg.Deps(Build)
	return run("store", "index")
}

// Pipeline runs the full acquire, extract, index sequence.
func Pipeline() error {
	mg.SerialDeps(Acquire, Extract, Index)
	return nil
}

//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed scene against a local logging receiver.
func (Run) Demo() error {
	fmt.Println("Run testbed...")
	if _, err := executeCmd("go", withArgs("run", ".", "-receiver"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the testbed with the settings in meshsync.toml, reloaded on change.
func (Run) Configured() error {
	mg.Deps(Build.Binary)
	if _, err := executeCmd("bin/meshsync-testbed", withArgs("-settings", "meshsync.toml", "-receiver"), withStream()); err != nil {
		return err
	}
	return nil
}

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs every package test with the race detector.
func (Test) All() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./..."), withStream())
	return err
}

// Runs the tests of the send pipeline and the engine only.
func (Test) Engine() error {
	_, err := executeCmd("go", withArgs("test", "-race", "-count=1", "./engine", "./engine/systems/..."), withStream())
	return err
}

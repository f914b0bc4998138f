//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds and runs the testbed with its bundled configuration.
func (Run) Engine() error {
	mg.Deps(Build.Engine)
	fmt.Println("Run engine...")
	if _, err := executeCmd("bin/marmot", withArgs("-config", "testbed/engine.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

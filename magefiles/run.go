//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

const (
	testbedAssets = "testbed/assets"
	testbedPack   = "testbed/testbed.pack"
)

// Packs the testbed assets into testbed/testbed.pack.
func (Run) Pack() error {
	mg.Deps(Build.Packer)
	fmt.Println("Packing testbed assets...")
	if _, err := executeCmd("bin/packer", withArgs("build", "-d", testbedAssets, "-o", testbedPack, "--config", "testbed/packer.toml", "--yes"), withStream()); err != nil {
		return err
	}
	return nil
}

// Lists the records of the testbed pack.
func (Run) Peek() error {
	mg.Deps(Run.Pack)
	if _, err := executeCmd("bin/packer", withArgs("peek", testbedPack, "--detail"), withStream()); err != nil {
		return err
	}
	return nil
}

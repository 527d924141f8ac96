//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies the module and builds the packer binary into bin/.
func (Build) Packer() error {
	if err := goTidy(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/packer", "."), withStream()); err != nil {
		return err
	}
	return nil
}

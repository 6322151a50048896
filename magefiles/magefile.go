//go:build mage

// Mage targets for quantlib-recipe-go.
package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

// Build compiles the quantlib-recipe command.
func Build() error {
	mg.Deps(Vet)
	return sh.RunV("go", "build", "-o", "bin/quantlib-recipe", "./cmd/quantlib-recipe")
}

// Vet runs go vet over the module.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Matrix prints the filtered default matrix for every supported platform.
func Matrix() error {
	mg.Deps(Build)
	for _, goos := range []string{"linux", "darwin", "windows"} {
		if err := sh.RunV("bin/quantlib-recipe", "matrix", "--os", goos, "--excluded"); err != nil {
			return err
		}
	}
	return nil
}

// Clean removes build outputs.
func Clean() error {
	return sh.Rm("bin")
}

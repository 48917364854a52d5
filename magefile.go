//go:build mage
// +build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Check

// Check vets and tests the whole module.
func Check() {
	mg.SerialDeps(Vet, Test)
	fmt.Println("Checks finished")
}

// Vet runs go vet on every package.
func Vet() error {
	fmt.Println("Vetting...")
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests with the race detector.
func Test() error {
	fmt.Println("Testing...")
	return sh.RunV("go", "test", "-race", "-count=1", "./...")
}

// Cover writes a coverage profile to coverage.out.
func Cover() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-coverprofile=coverage.out", "./...")
}

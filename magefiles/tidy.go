//go:build mage

package main

// Runs go mod tidy.
func Tidy() error {
	return goModTidy()
}

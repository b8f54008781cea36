// The main package for the docfold executable.
package main

import (
	"github.com/docfold/docfold/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}

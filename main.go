// The main package for the librarian executable.
package main

import (
	"github.com/fsgeodata/catalog-librarian/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}

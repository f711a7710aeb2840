// Command j2 reads a program in one of the recognized front-end formats
// and runs it against a fresh environment, per spec.md §6's CLI surface.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

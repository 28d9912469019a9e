// Command runnerctl is the CLI client for runnerd (spec §6): it resolves a
// remote endpoint from http://, https://, or cfg:// form and calls the
// transport's HTTP+JSON operations. Grounded on the teacher's
// cmd/streamy/root.go persistent-flags-plus-subcommand layout.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}

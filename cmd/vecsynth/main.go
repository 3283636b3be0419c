// Command vecsynth synthesizes relational queries with vector search from
// input/output examples.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/vecsynth/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

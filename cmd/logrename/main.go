// Command logrename recovers obfuscated class and method names from the
// string literals passed to logging helpers.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/logrename/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

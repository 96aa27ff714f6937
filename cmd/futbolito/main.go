// cmd/futbolito/main.go
package main

import (
	"fmt"
	"os"

	"github.com/codr1/futbolito/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

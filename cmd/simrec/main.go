package main

import (
	"fmt"
	"os"

	"github.com/ghalamif/SimRecorder/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "simrec: %v\n", err)
		os.Exit(1)
	}
}

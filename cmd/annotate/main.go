package main

import (
	"fmt"
	"os"

	"github.com/menta2k/frame-annotator/internal/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

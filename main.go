// ABOUTME: Entry point for the bugtracker CLI
// ABOUTME: Terminal client for the bugtracker project tracker

package main

import (
	"fmt"
	"os"

	"github.com/markalston/bugtracker-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Package main is the entry point for the swfplayer application.
package main

import (
	"os"

	"github.com/jmylchreest/swfplayer/cmd/swfplayer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

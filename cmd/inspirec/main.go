package main

import (
	"os"

	"github.com/inspirecore/inspire/cmd/inspirec/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

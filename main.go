package main

import (
	"os"

	"github.com/askql/askql/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

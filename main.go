package main

import (
	"os"

	"github.com/abhisek/aimentor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

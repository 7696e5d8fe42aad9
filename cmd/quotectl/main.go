package main

import (
	"os"

	"github.com/Simplici0/quotecalc/cmd/quotectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

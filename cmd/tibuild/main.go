package main

import (
	"os"

	"github.com/moasq/tibuild/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

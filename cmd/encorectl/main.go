package main

import (
	"os"

	"encore/cmd/encorectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

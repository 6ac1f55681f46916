package main

import (
	"os"

	"github.com/celerix-dev/celerix-prefs/cmd/celerix-prefs/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

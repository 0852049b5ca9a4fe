package main

import (
	"os"

	"github.com/vivaneiona/tabextract/internal/command"
)

func main() {
	if err := command.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

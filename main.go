package main

import (
	"os"

	"github.com/macmarek/scheduling-assistant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/abhisek/ronpa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

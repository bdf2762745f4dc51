package main

import (
	"os"

	"github.com/traderlab/optioneer/cmd/optioneer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

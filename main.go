package main

import (
	"os"

	"github.com/creativechannel/denizen/internal/cmd"
	"github.com/creativechannel/denizen/internal/logging"
)

func main() {
	if err := cmd.Run(os.Args[1:]...); err != nil {
		logging.Errorf("%v", err)
		os.Exit(1)
	}
}

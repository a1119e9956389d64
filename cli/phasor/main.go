package main

import (
	"os"

	phasorcmder "github.com/phasorlabs/phasor/cmd/phasor"
)

func main() {
	cmd := phasorcmder.NewPhasorCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/sureshield/coinledger/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

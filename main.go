package main

import (
	"os"

	"github.com/pk910/catdao-contracts/deploy-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

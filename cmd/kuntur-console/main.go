package main

import (
	"os"

	"github.com/kuntur-security/kuntur-console/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}

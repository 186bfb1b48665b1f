package main

import (
	"os"

	"github.com/jayeshwarhadi/HireLens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/assist-by/replica/cmd/replica/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

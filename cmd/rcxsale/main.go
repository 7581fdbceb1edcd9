package main

import (
	"os"

	"github.com/rcx-labs/rcxsale-go/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

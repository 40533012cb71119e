package main

import (
	"os"

	"github.com/voxlate/voxlate/cmd/voxlate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

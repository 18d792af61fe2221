package main

import (
	"os"

	"github.com/solatis/estimator/cmd/estimator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

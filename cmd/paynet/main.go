package main

import (
	"os"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/gridmarket/orderbook-svc/internal/cli"
)

func main() {
	if !cli.Run(os.Args) {
		os.Exit(1)
	}
}

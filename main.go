package main

import (
	"os"

	"github.com/questbibek/leads-scraper-pro/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

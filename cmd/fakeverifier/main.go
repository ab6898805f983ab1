// Package main is the entry point of the fakeverifier dataset tool.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pdevulapally/fakeverifier-data/internal/cli"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

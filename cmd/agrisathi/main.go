// Command agrisathi is the entry point for the AgriSathi agricultural
// assistant. It provides a CLI interface (via Cobra) and an HTTP server
// exposing document ingestion, vector search, and streaming chat.
package main

import (
	"fmt"
	"os"

	"github.com/agrisathi/agrisathi-go/cmd/agrisathi/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

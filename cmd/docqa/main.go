// Command docqa is the entry point for the document question-answering
// assistant. It provides a CLI interface (via Cobra) and an optional HTTP
// server exposing the answer pipeline as a JSON API.
package main

import (
	"fmt"
	"os"

	"github.com/docqa-ai/docqa-go/cmd/docqa/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

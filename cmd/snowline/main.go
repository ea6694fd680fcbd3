// Command snowline runs the weather and snowpack ingestion service.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("snowline failed", "error", err)
		os.Exit(1)
	}
}

// Command todoman starts the todoman API server.
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/todoman/internal/app"
)

func main() {
	if err := app.Run(os.Stderr, os.Args[1:]); err != nil {
		slog.Error("application exited with error",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
}

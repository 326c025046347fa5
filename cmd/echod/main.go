// File: cmd/echod/main.go
// Author: momentics <momentics@gmail.com>
//
// Reactor-based TCP echo daemon. Listens on port 9995, echoes every
// byte back to its sender, and exits cleanly two seconds after SIGINT.
// No flags, no environment, no files.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/momentics/hioload-echo/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	srv, err := server.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "echod: %v\n", err)
		os.Exit(1)
	}

	runErr := srv.Run()
	if err := srv.Close(); err != nil {
		slog.Warn("teardown", "error", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "echod: %v\n", runErr)
		os.Exit(1)
	}
	slog.Info("done")
}

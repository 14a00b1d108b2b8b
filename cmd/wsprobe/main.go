// wsprobe sends a single 0x47 binary frame to a WebSocket server and
// prints the replies.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"packetprobe/cmd"
	perr "packetprobe/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := cmd.ExecuteWS(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil && !perr.Is(err, perr.ErrAllAttemptsFailed) {
		fmt.Fprintf(os.Stderr, "wsprobe: %v\n", err)
	}
	cancel()
	os.Exit(perr.ExitCode(err))
}

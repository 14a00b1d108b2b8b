// tcpprobe sends the single byte 0x47 to a raw TCP server and prints
// the reply.
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

	err := cmd.ExecuteTCP(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil && !perr.Is(err, perr.ErrAllAttemptsFailed) {
		fmt.Fprintf(os.Stderr, "tcpprobe: %v\n", err)
	}
	cancel()
	os.Exit(perr.ExitCode(err))
}

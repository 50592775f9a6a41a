// Package main provides redis-idle-scan, a read-only report of Redis keys by
// idle time and TTL.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/baechuer/redis-idle-scan/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdout, os.Stderr, os.Args[1:], sigCh)

	os.Exit(exitCode)
}

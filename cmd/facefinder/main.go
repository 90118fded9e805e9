// Command facefinder prints the corpus entries that show the same person as
// the face in a query image.
//
//	facefinder <image_url> <corpus>
//
// stdout carries exactly one JSON document: {"matchingEntries":[...]} on
// success or {"error":"..."} on failure. Logs and progress go to stderr.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals routes the signals that interrupt a training run to ch.
// Windows has no SIGTERM, so only Ctrl+C is routed.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

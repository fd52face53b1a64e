package main

import (
	"fmt"
	"os"
	"runtime"

	"spectral/cmd"
	speclog "spectral/internal/log"
	"spectral/pkg/build"
)

// main is the entry point. Program flow has three phases:
//
// 1. Startup (cold path): initialize build information, pin
//    GOMAXPROCS for a realtime audio callback, then hand off to the
//    cobra command tree.
// 2. Concurrent (hot path): whichever subcommand runs opens the
//    engine and its chosen I/O adapter; the audio callback and the
//    engine's worker goroutines run for the life of the process.
// 3. Shutdown (cold path): each subcommand's RunE closes its own
//    engine and stream on the way out.
func main() {
	if err := build.Initialize(); err != nil {
		speclog.Warnf("build info unavailable, continuing with defaults: %v", err)
	}

	// One thread for the audio callback, one for everything else.
	runtime.GOMAXPROCS(2)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

//go:build !unix

package main

import "os"

// Without user signals the run command only answers pings and logs.
var (
	whistleSignal os.Signal
	poseSignal    os.Signal
)

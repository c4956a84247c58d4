//go:build unix

package main

import (
	"os"
	"syscall"
)

var (
	whistleSignal os.Signal = syscall.SIGUSR1
	poseSignal    os.Signal = syscall.SIGUSR2
)

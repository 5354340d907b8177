// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Pipeline controls per-frame pipeline traces (state, scores, history).
// These fire every tick, so they have their own --debug-pipeline flag.
var Pipeline bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Trace prints a message only if pipeline tracing is enabled
func Trace(format string, args ...interface{}) {
	if Pipeline {
		fmt.Printf(format, args...)
	}
}

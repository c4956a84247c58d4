// Package log provides the logging abstraction used by bifrost components.
//
// The broadcast buffers never log. Everything that composes them with a
// transport (the node, its plugins and the CLI) logs through [Logger], so an
// embedding application can route bifrost output into its own pipeline.
//
// Use the zerolog adapter:
//
//	logger := log.NewZerologAdapter()
//
// or, with an explicit writer and level:
//
//	level, err := log.ParseLevel("debug")
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stdout).Level(level))
//
// [NoopLogger] discards everything and is the default when no logger is
// configured.
package log

// Package heirlog provides the core's process-wide logging plumbing: one
// rotating log writer, one named sub-logger per package family, wired up
// the same way the reference CLI tool's root command wires up CHDB/BCKP/PEER
// sub-loggers. Library packages never write to stdout directly; they log
// through the sub-logger this package hands them and return errors for
// anything the caller needs to act on.
package heirlog

import (
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/lightningnetwork/lnd/build"
)

var (
	writer     = build.NewRotatingLogWriter()
	registered sync.Map // subsystem tag -> btclog.Logger
)

// genSubLogger creates a sub logger with an empty shutdown function.
func genSubLogger(w *build.RotatingLogWriter) func(string) btclog.Logger {
	return func(tag string) btclog.Logger {
		return w.GenSubLogger(tag, func() {})
	}
}

// Sub returns (creating if necessary) the named sub-logger for a package
// family, e.g. "VLT" for the vault reconstructor or "PSBT" for the claim
// builder. The same tag always returns the same logger instance.
func Sub(tag string) btclog.Logger {
	if existing, ok := registered.Load(tag); ok {
		return existing.(btclog.Logger)
	}

	logger := build.NewSubLogger(tag, genSubLogger(writer))
	writer.RegisterSubLogger(tag, logger)
	registered.Store(tag, logger)

	return logger
}

// EnableFileLogging turns on rotation to disk at the given path. No package
// in this module calls it, cmd/heirclaim included; logging stays in memory
// unless a caller invokes it.
func EnableFileLogging(path string, maxLogFileSize, maxLogFiles int) error {
	if err := writer.InitLogRotator(path, maxLogFileSize, maxLogFiles); err != nil {
		return err
	}
	return build.ParseAndSetDebugLevels("info", writer)
}

// SetLevel adjusts verbosity across all registered sub-loggers, e.g. "debug"
// for CLI --debuglevel handling.
func SetLevel(level string) error {
	return build.ParseAndSetDebugLevels(level, writer)
}

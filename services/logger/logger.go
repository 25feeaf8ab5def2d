package logsvc

import (
	"io"
	"log"
	"os"

	"github.com/trezcool/coaching/core"
)

// New returns a Rollbar logger writing to stdout with the given prefix (eg. "API : ").
// Rollbar reporting is disabled in debug mode.
func New(prefix string, conf *core.Config) *RollbarLogger {
	logger := NewRollbarLogger(log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!(conf.Debug || conf.TestMode))
	return logger
}

// NewDiscardLogger returns a logger that reports nothing; used by tests.
func NewDiscardLogger() *RollbarLogger {
	logger := NewRollbarLogger(log.New(io.Discard, "", 0), core.NewTestConfig())
	logger.Enable(false)
	return logger
}

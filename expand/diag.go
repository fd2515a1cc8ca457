package expand

import (
	"github.com/sirupsen/logrus"
)

// diag.go carries explicitly non-fatal diagnostics (a dropped NUL byte,
// a failed fork/pipe/FIFO) out to the host via structured, leveled
// logging rather than bash's bare fprintf-to-stderr. Fatal errors are
// never logged here; they are returned to the caller as an
// *ExpansionError instead.
var diagLog = logrus.New()

// SetLogger replaces the package-level logger, letting the host route
// diagnostics into its own logging pipeline.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		diagLog = l
	}
}

// warnOnce logs msg at warning level, implementing the
// one-shot-warning-per-substitution policy for NUL bytes in
// command-substitution output: stripNULBytes calls this at most once per
// substitution it processes, so no cross-call dedup state is needed (or
// wanted — a package-level dedup map would wrongly silence the warning
// for every later, unrelated substitution once the first one had fired).
func warnOnce(c *Config, msg string) {
	diagLog.WithField("component", "expand").Warn(msg)
}

// logSystemError reports a non-fatal fork/pipe/FIFO failure.
func logSystemError(op string, err error) {
	diagLog.WithFields(logrus.Fields{"component": "expand", "op": op}).WithError(err).Error("system call failed")
}

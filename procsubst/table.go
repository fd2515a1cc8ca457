// Package procsubst implements the process-substitution lifecycle:
// creating a FIFO (or /dev/fd) backend for each `<(...)` or `>(...)`,
// and tracking every entry created while expanding one command line so
// a fatal error can tear them all down. It is a toolkit for the host's
// `Config.ProcSubst` callback (expand.Config, context.go), not
// something the core expander calls directly, mirroring how process
// management lives in mvdan-sh's interp package (runner.go's
// bgProcs/ProcSubst closure) rather than in its expand package.
package procsubst

import "sync"

// Op mirrors expand.ProcSubstOp without importing the expand package, so
// this package stays a leaf with no dependency back on its own consumer.
type Op int

const (
	In Op = iota
	Out
)

// Entry is one live process substitution: the path handed back to the
// expanded word, and the cleanup that releases whatever backs it (a FIFO
// file and its background goroutine, typically).
type Entry struct {
	Path    string
	Op      Op
	Cleanup func() error
}

// Table tracks every Entry created during the expansion of one command
// line, grounded on mvdan-sh's r.bgProcs slice (interp/api.go:147):
// bookkeeping for background work spawned by word expansion that must be
// reaped or torn down together.
type Table struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Add registers e, returning it unchanged for convenient chaining at the
// call site (`return t.Add(e).Path, nil`).
func (t *Table) Add(e *Entry) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, e)
	return e
}

// Len reports how many entries are currently tracked.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Mark returns a checkpoint usable with Since, to isolate the entries
// created during a single expansion call from ones still open from an
// earlier command.
func (t *Table) Mark() int { return t.Len() }

// Since returns the entries added after mark, in creation order.
func (t *Table) Since(mark int) []*Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mark >= len(t.entries) {
		return nil
	}
	out := make([]*Entry, len(t.entries)-mark)
	copy(out, t.entries[mark:])
	return out
}

// Sweep runs every tracked entry's Cleanup and empties the table,
// matching fatal-error step "tear down pending
// process-substitution pipelines". Errors are collected, not the first
// one returned, so one failed cleanup never stops the rest from running.
func (t *Table) Sweep() []error {
	t.mu.Lock()
	entries := t.entries
	t.entries = nil
	t.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if e.Cleanup == nil {
			continue
		}
		if err := e.Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Reap removes and cleans up only the entries created since mark,
// leaving any earlier, still-relevant entries (e.g. ones `wait` might
// still need) tracked.
func (t *Table) Reap(mark int) []error {
	t.mu.Lock()
	if mark >= len(t.entries) {
		t.mu.Unlock()
		return nil
	}
	toClean := t.entries[mark:]
	t.entries = t.entries[:mark]
	t.mu.Unlock()

	var errs []error
	for _, e := range toClean {
		if e.Cleanup == nil {
			continue
		}
		if err := e.Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

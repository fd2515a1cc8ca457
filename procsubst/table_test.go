package procsubst

import "testing"

func TestTableSweep(t *testing.T) {
	tb := NewTable()
	var closed []string
	tb.Add(&Entry{Path: "/tmp/a", Op: In, Cleanup: func() error {
		closed = append(closed, "/tmp/a")
		return nil
	}})
	tb.Add(&Entry{Path: "/tmp/b", Op: Out, Cleanup: func() error {
		closed = append(closed, "/tmp/b")
		return nil
	}})
	if got := tb.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	if errs := tb.Sweep(); len(errs) != 0 {
		t.Fatalf("Sweep() returned errors: %v", errs)
	}
	if got := tb.Len(); got != 0 {
		t.Fatalf("Len() after Sweep = %d, want 0", got)
	}
	if len(closed) != 2 || closed[0] != "/tmp/a" || closed[1] != "/tmp/b" {
		t.Fatalf("cleanup order = %v, want [/tmp/a /tmp/b]", closed)
	}
}

func TestTableReapSinceMark(t *testing.T) {
	tb := NewTable()
	tb.Add(&Entry{Path: "/tmp/old", Cleanup: func() error { return nil }})
	mark := tb.Mark()
	var closed []string
	tb.Add(&Entry{Path: "/tmp/new", Cleanup: func() error {
		closed = append(closed, "/tmp/new")
		return nil
	}})

	since := tb.Since(mark)
	if len(since) != 1 || since[0].Path != "/tmp/new" {
		t.Fatalf("Since(mark) = %v, want one entry for /tmp/new", since)
	}

	if errs := tb.Reap(mark); len(errs) != 0 {
		t.Fatalf("Reap() returned errors: %v", errs)
	}
	if got := tb.Len(); got != 1 {
		t.Fatalf("Len() after Reap = %d, want 1 (the pre-mark entry)", got)
	}
	if len(closed) != 1 || closed[0] != "/tmp/new" {
		t.Fatalf("cleanup = %v, want [/tmp/new]", closed)
	}
}

package expand

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestWrapExtractErrWrapsPlainError(t *testing.T) {
	c := qt.New(t)
	plain := errors.New("bad substitution: no closing match for ${")
	wrapped := wrapExtractErr(plain)
	var ee *ExpansionError
	c.Assert(errors.As(wrapped, &ee), qt.IsTrue)
	c.Assert(ee.Unwind, qt.Equals, Discard)
	c.Assert(errors.Unwrap(wrapped), qt.Equals, plain)
}

func TestWrapExtractErrPassesThroughExpansionError(t *testing.T) {
	c := qt.New(t)
	orig := fatalf("bad substitution")
	wrapped := wrapExtractErr(orig)
	c.Assert(wrapped, qt.Equals, error(orig))
}

func TestWrapExtractErrNil(t *testing.T) {
	c := qt.New(t)
	c.Assert(wrapExtractErr(nil), qt.IsNil)
}

package quote

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestQuoteDequoteRoundTrip(t *testing.T) {
	c := qt.New(t)
	cases := []string{
		"",
		"hello",
		"hello world",
		"a\tb\nc",
		"foóà中",
		"plain ascii",
	}
	for _, s := range cases {
		got := Dequote(QuoteString([]byte(s), true))
		c.Assert(string(got), qt.Equals, s)
	}
}

func TestQuoteStringEmptyIsNS(t *testing.T) {
	c := qt.New(t)
	c.Assert(QuoteString(nil, true), qt.DeepEquals, []byte{NS})
	c.Assert(HasQuotedNull(QuoteString(nil, true)), qt.IsTrue)
}

func TestQuoteEscapesRoundTrip(t *testing.T) {
	c := qt.New(t)
	in := []byte{'a', ESC, 'b', NS, 'c'}
	escaped := QuoteEscapes(in, false)
	c.Assert(DequoteEscapes(escaped), qt.DeepEquals, in)
}

func TestQuoteEscapesEscapesSpaceWhenIFSEmpty(t *testing.T) {
	c := qt.New(t)
	got := QuoteEscapes([]byte("a b"), true)
	want := []byte{'a', ESC, ' ', 'b'}
	c.Assert(got, qt.DeepEquals, want)
}

func TestRemoveQuotedNullsKeepsSoleNull(t *testing.T) {
	c := qt.New(t)
	c.Assert(RemoveQuotedNulls([]byte{NS}), qt.DeepEquals, []byte{NS})
	c.Assert(RemoveQuotedNulls([]byte{'a', NS, 'b'}), qt.DeepEquals, []byte("ab"))
}

func TestRemoveQuotedIFS(t *testing.T) {
	c := qt.New(t)
	in := []byte{'a', ESC, ' ', 'b'}
	c.Assert(RemoveQuotedIFS(in, " \t\n"), qt.DeepEquals, []byte("a b"))
}

func TestDequoteMultibyte(t *testing.T) {
	c := qt.New(t)
	s := "中文test"
	got := Dequote(QuoteString([]byte(s), true))
	c.Assert(string(got), qt.Equals, s)
}

func TestDequoteTrailingLoneEsc(t *testing.T) {
	c := qt.New(t)
	got := Dequote([]byte{'a', ESC})
	c.Assert(got, qt.DeepEquals, []byte("a"))
}

package expand

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestExtractDollarBraceBalanced(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := "${a${b}c}tail"
	content, end, err := ex.ExtractDollarBrace(s, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, "a${b}c")
	c.Assert(s[end:], qt.Equals, "tail")
}

func TestExtractDollarBraceUnclosedFatal(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	_, _, err := ex.ExtractDollarBrace("${a", 0)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestExtractDollarBraceUnclosedLenient(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{Lenient: true}
	content, end, err := ex.ExtractDollarBrace("${a", 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, "${a")
	c.Assert(end, qt.Equals, len("${a"))
}

func TestExtractCommandSubstNested(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := "$(echo $(echo hi))rest"
	content, end, err := ex.ExtractCommandSubst(s, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, "echo $(echo hi)")
	c.Assert(s[end:], qt.Equals, "rest")
}

func TestExtractDoubleQuotedSkipsEscapes(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := `"a\"b"tail`
	content, end, err := ex.ExtractDoubleQuoted(s, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, `a\"b`)
	c.Assert(s[end:], qt.Equals, "tail")
}

func TestExtractSingleQuotedOpaque(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := `'a$b\c'tail`
	content, end, err := ex.ExtractSingleQuoted(s, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, `a$b\c`)
	c.Assert(s[end:], qt.Equals, "tail")
}

func TestExtractToDelimSkipsQuotedDelims(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := `"a:b":c`
	extracted, end := ex.ExtractToDelim(s, 0, ":")
	c.Assert(extracted, qt.Equals, `"a:b"`)
	c.Assert(s[end:], qt.Equals, ":c")
}

func TestExtractArraySubscriptBalanced(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := "[a[0]]tail"
	content, end, err := ex.ExtractArraySubscript(s, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, "a[0]")
	c.Assert(s[end:], qt.Equals, "tail")
}

func TestExtractProcSubstBalanced(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	s := "<(cat (a))tail"
	content, end, err := ex.ExtractProcSubst(s, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(content, qt.Equals, "cat (a)")
	c.Assert(s[end:], qt.Equals, "tail")
}

// Round-trip property: for every well-formed ${...}, the extractor
// returns an index past the closing delimiter, and the consumed
// substring re-extracts to itself.
func TestExtractDollarBraceRoundTrip(t *testing.T) {
	c := qt.New(t)
	ex := &Extractor{}
	inputs := []string{"${x}", "${x:-y}", "${a${b}}", "${x/a/b}"}
	for _, in := range inputs {
		content, end, err := ex.ExtractDollarBrace(in, 0)
		c.Assert(err, qt.IsNil)
		c.Assert(end, qt.Equals, len(in))
		again := "${" + content + "}"
		content2, end2, err := ex.ExtractDollarBrace(again, 0)
		c.Assert(err, qt.IsNil)
		c.Assert(content2, qt.Equals, content)
		c.Assert(end2, qt.Equals, len(again))
	}
}

package expand

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func wd(s string, flags Flags) *WordDesc { return &WordDesc{Word: s, Flags: flags} }

func TestSeparateAssignmentsLeadingRun(t *testing.T) {
	c := qt.New(t)
	words := []*WordDesc{
		wd("FOO=bar", Assignment),
		wd("BAZ=qux", Assignment),
		wd("echo", 0),
		wd("hi", 0),
	}
	assigns, rest := SeparateAssignments(words, false)
	c.Assert(len(assigns), qt.Equals, 2)
	c.Assert(assigns[0].Word, qt.Equals, "FOO=bar")
	c.Assert(assigns[1].Word, qt.Equals, "BAZ=qux")
	c.Assert(len(rest), qt.Equals, 2)
	c.Assert(rest[0].Word, qt.Equals, "echo")
}

func TestSeparateAssignmentsNoKeywordsInEnv(t *testing.T) {
	c := qt.New(t)
	words := []*WordDesc{
		wd("FOO=bar", Assignment),
		wd("echo", 0),
		wd("BAZ=qux", Assignment),
	}
	assigns, rest := SeparateAssignments(words, false)
	c.Assert(len(assigns), qt.Equals, 1)
	c.Assert(len(rest), qt.Equals, 2)
	c.Assert(rest[1].Word, qt.Equals, "BAZ=qux")
}

func TestSeparateAssignmentsKeywordsInEnv(t *testing.T) {
	c := qt.New(t)
	words := []*WordDesc{
		wd("FOO=bar", Assignment),
		wd("echo", 0),
		wd("BAZ=qux", Assignment),
	}
	assigns, rest := SeparateAssignments(words, true)
	c.Assert(len(assigns), qt.Equals, 2)
	c.Assert(assigns[1].Word, qt.Equals, "BAZ=qux")
	c.Assert(len(rest), qt.Equals, 1)
	c.Assert(rest[0].Word, qt.Equals, "echo")
}

func TestSeparateAssignmentsNone(t *testing.T) {
	c := qt.New(t)
	words := []*WordDesc{wd("echo", 0), wd("hi", 0)}
	assigns, rest := SeparateAssignments(words, false)
	c.Assert(assigns, qt.HasLen, 0)
	c.Assert(rest, qt.HasLen, 2)
}

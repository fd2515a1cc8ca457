package expand

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSplitDefaultIFS(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"a", []string{"a"}},
		{"a b", []string{"a", "b"}},
		{"  a   b  ", []string{"a", "b"}},
		{"a\tb\nc", []string{"a", "b", "c"}},
	}
	for _, tc := range tests {
		got := splitDefaultIFS([]byte(tc.in))
		c.Assert(got, qt.DeepEquals, tc.want, qt.Commentf("in=%q", tc.in))
	}
}

func TestSplitCustomIFS(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		in   string
		ifs  string
		want []string
	}{
		{"a:b", ":", []string{"a", "b"}},
		{"a::b", ":", []string{"a", "", "b"}},
		{"a:", ":", []string{"a", ""}},
		{":a", ":", []string{"", "a"}},
		{"", ":", nil},
		{"a b:c", " :", []string{"a", "b", "c"}},
		{"  a : b  ", " :", []string{"a", "b"}},
	}
	for _, tc := range tests {
		got := splitCustomIFS([]byte(tc.in), tc.ifs)
		c.Assert(got, qt.DeepEquals, tc.want, qt.Commentf("in=%q ifs=%q", tc.in, tc.ifs))
	}
}

func TestSplitFieldsEmptyIFS(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{ifs: "", ifsSet: true}
	got := cfg.splitFields([]byte("a b c"))
	c.Assert(got, qt.DeepEquals, []string{"a b c"})
}

func TestSplitFieldsUnsetIFS(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{}
	got := cfg.splitFields([]byte(" a  b "))
	c.Assert(got, qt.DeepEquals, []string{"a", "b"})
}

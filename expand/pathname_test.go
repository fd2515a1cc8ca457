package expand

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/shellcore/wordexp/quote"
)

func TestHasGlobMeta(t *testing.T) {
	c := qt.New(t)
	c.Assert(hasGlobMeta("*.go"), qt.IsTrue)
	c.Assert(hasGlobMeta("foo?bar"), qt.IsTrue)
	c.Assert(hasGlobMeta("[abc]"), qt.IsTrue)
	c.Assert(hasGlobMeta("plain"), qt.IsFalse)
}

func TestDeglobEscapes(t *testing.T) {
	c := qt.New(t)
	shielded := string([]byte{quote.ESC, '*'})
	c.Assert(deglobEscapes(shielded+"foo"), qt.Equals, "foo")
	c.Assert(deglobEscapes("foo*bar"), qt.Equals, "foo*bar")
}

func TestPatternEscape(t *testing.T) {
	c := qt.New(t)
	shielded := []byte{quote.ESC, '*'}
	c.Assert(patternEscape(shielded), qt.Equals, `\*`)

	shieldedLetter := []byte{quote.ESC, 'a'}
	c.Assert(patternEscape(shieldedLetter), qt.Equals, "a")

	c.Assert(patternEscape([]byte("foo*bar")), qt.Equals, "foo*bar")
}

func TestExpandPathnameQuotedMetaStaysLiteral(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{}
	field := []byte{quote.ESC, '*'}
	got, err := cfg.expandPathname(field)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{"*"})
}

func TestExpandPathnameNoMeta(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{}
	got, err := cfg.expandPathname([]byte("plain/path"))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{"plain/path"})
}

func TestExpandPathnameNoMatchDefault(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{}
	pat := filepath.Join(t.TempDir(), "nonexistent-*.xyz")
	got, err := cfg.expandPathname([]byte(pat))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{pat})
}

func TestExpandPathnameNoMatchNullGlob(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{NullGlob: true}
	pat := filepath.Join(t.TempDir(), "nonexistent-*.xyz")
	got, err := cfg.expandPathname([]byte(pat))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNil)
}

func TestExpandPathnameNoMatchFailGlob(t *testing.T) {
	c := qt.New(t)
	cfg := &Config{FailGlob: true}
	pat := filepath.Join(t.TempDir(), "nonexistent-*.xyz")
	_, err := cfg.expandPathname([]byte(pat))
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestGlobFilesystemMatches(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.log", ".hidden.txt"} {
		c.Assert(os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644), qt.IsNil)
	}

	pat := filepath.Join(dir, "*.txt")
	matches, err := globFilesystem(pat, false)
	c.Assert(err, qt.IsNil)
	c.Assert(matches, qt.DeepEquals, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
	})
}

func TestGlobFilesystemNoMatch(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	pat := filepath.Join(dir, "*.absent")
	matches, err := globFilesystem(pat, false)
	c.Assert(err, qt.IsNil)
	c.Assert(matches, qt.HasLen, 0)
}

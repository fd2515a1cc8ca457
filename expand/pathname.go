// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/shellcore/wordexp/quote"
	"mvdan.cc/sh/v3/pattern"
)

// pathname.go implements pathname expansion. Directory walking is
// grounded on mvdan-sh's glob/globDir (expand/expand.go:474-556);
// pattern-to-regexp translation is delegated to mvdan.cc/sh/v3/pattern
// instead of reimplementing it, since the glob engine is treated as an
// external collaborator the core only calls abstractly (here, through
// the host-supplied Globber when one is wired, falling back to this
// package's own filesystem walk otherwise).

// hasGlobMeta reports whether s contains an unescaped pattern
// metacharacter, using pattern.HasMeta so the notion of "meta" always
// matches what pattern.Regexp itself would translate.
func hasGlobMeta(s string) bool {
	return pattern.HasMeta(s, 0)
}

// isGlobMetaByte reports whether b is a byte that patternEscape knows how
// to re-escape for the pattern package, i.e. one worth ESC-shielding when
// it comes from inside quotes or a backslash escape.
func isGlobMetaByte(b byte) bool {
	switch b {
	case '*', '?', '[', ']', '\\':
		return true
	}
	return false
}

// expandPathname runs pathname expansion for a single dequoted,
// ESC/NS-still-encoded field: if it contains an unquoted glob
// metacharacter, it is matched against the filesystem (or the host's
// Globber, when wired) and replaced by its sorted matches; with no match,
// FailGlob/NullGlob/default govern the outcome.
func (c *Config) expandPathname(field []byte) ([]string, error) {
	// An ESC byte always shields the glob metacharacter that follows it
	// from being treated as live: strip those pairs down to literal
	// text before testing for meta.
	literal := deglobEscapes(string(field))
	if !hasGlobMeta(literal) {
		return []string{string(quote.Dequote(field))}, nil
	}

	// Re-escape whatever was ESC-shielded as a backslash-escape, the
	// notation pattern.Regexp itself understands for "this metacharacter
	// is literal" (pattern.QuoteMeta), so a shielded "*" still matches
	// only a literal asterisk rather than being glob-expanded.
	pat := patternEscape(quote.RemoveQuotedNulls(field))
	if c.Globber != nil {
		return c.finishGlobMatches(pat, c.Globber.Glob(pat))
	}
	matches, err := globFilesystem(pat, c.GlobStar)
	if err != nil {
		return nil, err
	}
	return c.finishGlobMatches(pat, matches)
}

func (c *Config) finishGlobMatches(pat string, matches []string) ([]string, error) {
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches, nil
	}
	if c.FailGlob {
		return nil, fatalf("no match: %s", pat)
	}
	if c.NullGlob {
		return nil, nil
	}
	return []string{string(quote.Dequote([]byte(pat)))}, nil
}

// deglobEscapes drops every ESC-escaped pair (the ESC byte and the byte it
// shields) so that
// hasGlobMeta only ever sees metacharacters the user actually wrote bare,
// never ones the expander quoted on the user's behalf.
func deglobEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == quote.ESC && i+1 < len(s) {
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// patternEscape turns every ESC-shielded byte in s into the shell
// pattern's own backslash-escape when that byte is itself a pattern
// metacharacter, and drops the ESC otherwise; unescaped bytes pass
// through unchanged so pattern.Regexp still sees live metacharacters
// where the user wrote them bare.
func patternEscape(s []byte) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == quote.ESC && i+1 < len(s) {
			i++
			switch s[i] {
			case '*', '?', '[', ']', '\\':
				b.WriteByte('\\')
			}
			b.WriteByte(s[i])
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// globFilesystem is the built-in Globber used when Config.Globber is nil:
// a direct port of mvdan-sh's path-component-at-a-time directory walk
// (expand/expand.go's glob/globDir), swapping its internal
// syntax.TranslatePattern call for pattern.Regexp.
func globFilesystem(p string, globStar bool) ([]string, error) {
	parts := strings.Split(p, string(filepath.Separator))
	matches := []string{"."}
	if filepath.IsAbs(p) {
		if parts[0] == "" {
			matches[0] = string(filepath.Separator)
		} else {
			matches[0] = parts[0] + string(filepath.Separator)
		}
		parts = parts[1:]
	}
	for _, part := range parts {
		if part == "**" && globStar {
			for i := range matches {
				matches[i] += string(filepath.Separator)
			}
			latest := matches
			for {
				var newMatches []string
				for _, dir := range latest {
					newMatches = globDirWalk(dir, "", newMatches)
				}
				if len(newMatches) == 0 {
					break
				}
				matches = append(matches, newMatches...)
				latest = newMatches
			}
			continue
		}
		expr, err := pattern.Regexp(part, 0)
		if err != nil {
			return nil, nil
		}
		var newMatches []string
		for _, dir := range matches {
			newMatches = globDirWalk(dir, "^"+expr+"$", newMatches)
		}
		matches = newMatches
	}
	return matches, nil
}

// globDirWalk lists dir and appends every entry name matching rx (or
// every entry, when rx is empty — the globstar level-expansion case) to
// matches, skipping dotfiles unless rx itself anchors on a literal dot.
func globDirWalk(dir, rx string, matches []string) []string {
	d, err := os.Open(dir)
	if err != nil {
		return matches
	}
	defer d.Close()

	names, _ := d.Readdirnames(-1)
	sort.Strings(names)

	matchAll := rx == ""
	var re *regexp.Regexp
	if !matchAll {
		re = regexp.MustCompile(rx)
	}
	for _, name := range names {
		if !strings.HasPrefix(rx, `^\.`) && len(name) > 0 && name[0] == '.' {
			continue
		}
		if matchAll || re.MatchString(name) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	return matches
}

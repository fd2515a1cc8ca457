// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"os/user"
	"strings"
)

// tilde.go implements tilde-expansion dispatch: resolving a leading "~",
// "~user", "~+", or "~-" prefix of a word to a home directory. Grounded
// on mvdan-sh's expandUser (expand/expand.go:442-461), generalized to
// the full set of bash's tilde prefixes.

// defaultTildeExpander resolves tilde prefixes using the host's user
// database and the shell's PWD/OLDPWD/HOME variables, used when a Config
// does not supply its own TildeExpander.
type defaultTildeExpander struct{ env Environ }

// NewDefaultTildeExpander builds a TildeExpander backed by env, matching
// mvdan-sh's os/user-based lookup (expand/expand.go's expandUser) plus
// the "~+" and "~-" forms. A "~N" directory-stack prefix is not
// recognised: N is looked up as a user name like any other.
func NewDefaultTildeExpander(env Environ) TildeExpander {
	return defaultTildeExpander{env: env}
}

func (d defaultTildeExpander) ExpandTilde(prefix string) (string, bool) {
	name := prefix
	switch name {
	case "":
		if d.env == nil {
			return prefix, false
		}
		home := d.env.Get("HOME")
		if !home.IsSet() {
			return prefix, false
		}
		return home.String(), true
	case "+":
		if d.env == nil {
			return prefix, false
		}
		pwd := d.env.Get("PWD")
		if pwd.IsSet() {
			return pwd.String(), true
		}
		return prefix, false
	case "-":
		if d.env == nil {
			return prefix, false
		}
		old := d.env.Get("OLDPWD")
		if old.IsSet() {
			return old.String(), true
		}
		return prefix, false
	}
	u, err := user.Lookup(name)
	if err != nil {
		return prefix, false
	}
	return u.HomeDir, true
}

// expandTildePrefix splits s into its leading tilde prefix (the run up to
// the first "/", ":", or end of string) and the remainder, then resolves
// the prefix through cfg.Tilde (falling back to a default expander backed
// by cfg.Env). If the prefix cannot be resolved, s is returned unchanged
// and ok is false.
func (c *Config) expandTildePrefix(s string) (expanded string, ok bool) {
	if !strings.HasPrefix(s, "~") {
		return s, false
	}
	rest := s[1:]
	end := strings.IndexAny(rest, "/:")
	name := rest
	tail := ""
	if end >= 0 {
		name, tail = rest[:end], rest[end:]
	}
	te := c.Tilde
	if te == nil {
		te = NewDefaultTildeExpander(c.Env)
	}
	home, ok := te.ExpandTilde(name)
	if !ok {
		return s, false
	}
	return home + tail, true
}

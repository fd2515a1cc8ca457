// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"bytes"
	"context"
	"strings"

	"github.com/shellcore/wordexp/quote"
)

// cmdsubst.go implements command substitution. The fork/exec of the
// parsed command is delegated to the host-supplied Executor capability,
// mirroring expand.Config.CmdSubst in mvdan-sh's interp/interp.go:48-75
// and the "$(<file)" fast path at interp/interp.go:98-112
// (catShortcutArg).

// catShortcutTarget reports whether text is of the shape "< FILE" with
// nothing else around it — bash's "$(<file)" fast path that reads the file
// directly instead of forking a subshell to run "cat file".
func catShortcutTarget(text string) (path string, ok bool) {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "<") {
		return "", false
	}
	rest := strings.TrimSpace(t[1:])
	if rest == "" || strings.ContainsAny(rest, " \t\n|&;()<>") {
		return "", false
	}
	return rest, true
}

// runCmdSubst evaluates the inner text of "$(...)" or `...`, returning the
// child's captured stdout with trailing newlines stripped, ESC-quoted per
// quote.QuoteString when the surrounding context is double-quoted.
func (c *Config) runCmdSubst(ctx context.Context, text string, quoted bool) ([]byte, error) {
	if path, ok := catShortcutTarget(text); ok {
		if data, ok := c.readFileFast(path); ok {
			return c.finishCmdSubst(data, quoted), nil
		}
	}
	if c.Executor == nil {
		return nil, fatalf("command substitution requires an Executor")
	}
	var buf bytes.Buffer
	_, err := c.Executor.Execute(ctx, &buf, CmdSubstSource(text))
	if err != nil {
		return nil, err
	}
	out := stripNULBytes(c, buf.Bytes())
	return c.finishCmdSubst(out, quoted), nil
}

// finishCmdSubst strips trailing newlines and, when quoted, ESC-escapes
// every byte of the result (quote.QuoteString, not the lighter
// quote.QuoteEscapes) so that splitting and pathname expansion both
// treat the whole result as opaque literal text, including any glob
// metacharacter the substituted command happened to print.
func (c *Config) finishCmdSubst(data []byte, quoted bool) []byte {
	data = bytes.TrimRight(data, "\n")
	if quoted {
		return quote.QuoteString(data, c.Multibyte)
	}
	return data
}

// stripNULBytes drops NUL bytes from command-substitution output, logging a
// one-shot warning per substitution.
func stripNULBytes(c *Config, data []byte) []byte {
	if !bytes.ContainsRune(data, 0) {
		return data
	}
	warnOnce(c, "command substitution: dropping NUL bytes in output")
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// readFileFast is the "$(<file)" fast path; it is a capability of the host
// Executor when present (an ordinary Environ has no filesystem access), so
// it falls through to the normal fork path when unavailable.
func (c *Config) readFileFast(path string) ([]byte, bool) {
	type fileReader interface {
		ReadFile(path string) ([]byte, error)
	}
	fr, ok := c.Executor.(fileReader)
	if !ok {
		return nil, false
	}
	data, err := fr.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

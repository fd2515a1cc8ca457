// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/shellcore/wordexp/quote"
)

// driver.go implements the top-level driver that runs every expansion
// phase in order and, on a fatal error, tears down whatever partial
// state had accumulated instead of unwinding through a longjmp. Naming
// follows mvdan-sh's own top-level entry points (expand/expand.go's
// ExpandLiteral/ExpandFields/ExpandPattern).

// ExpandWordList runs the full expansion pipeline, in order: brace
// expansion, assignment separation, per-word tilde/parameter/
// command/arithmetic/process-substitution/splitting, then pathname
// expansion and quote removal. It returns the assignment queue (still
// ASCII NAME=value text, unexpanded beyond its own word-internal
// expansions) separately from the final command WordList.
//
// On a fatal *ExpansionError, the partially-built result is discarded and
// cfg.ProcSubstSweep (if set) is invoked before the error is returned.
func (cfg *Config) ExpandWordList(ctx context.Context, words []*WordDesc, keywordsInEnv bool) (assigns []*WordDesc, result *WordList, err error) {
	cfg.prepareIFS()
	assignWords, cmdWords := SeparateAssignments(words, keywordsInEnv)

	expandedAssigns, err := cfg.expandEach(ctx, assignWords)
	if err != nil {
		cfg.sweepOnFatal()
		return nil, nil, err
	}
	expandedCmd, err := cfg.expandEach(ctx, cmdWords)
	if err != nil {
		cfg.sweepOnFatal()
		return nil, nil, err
	}
	return expandedAssigns, NewWordList(expandedCmd), nil
}

func (cfg *Config) sweepOnFatal() {
	if cfg.ProcSubstSweep != nil {
		cfg.ProcSubstSweep()
	}
}

// expandEach runs the full per-word pipeline over words, flattening brace
// expansion and IFS splitting's multiple outputs into a single result
// list, in order.
func (cfg *Config) expandEach(ctx context.Context, words []*WordDesc) ([]*WordDesc, error) {
	var out []*WordDesc
	for _, w := range words {
		expanded, err := cfg.expandOneWord(ctx, w)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// expandOneWord runs brace expansion, word-internal expansion, pathname
// expansion, and quote removal over a single WordDesc, in
// pipeline order, returning every resulting word.
func (cfg *Config) expandOneWord(ctx context.Context, w *WordDesc) ([]*WordDesc, error) {
	literals := []string{w.Word}
	// Brace expansion is purely lexical and runs before any other
	// expansion; bash never brace-expands an assignment word's value
	// (`x={a,b}` assigns the literal string "{a,b}").
	if cfg.BraceExpansion && !w.Flags.Has(NoBrace) && !w.Flags.Has(Assignment) {
		literals = Braces(w.Word)
	}

	var out []*WordDesc
	for _, lit := range literals {
		sub := &WordDesc{Word: lit, Flags: w.Flags}
		fields, _, err := cfg.expandWord(ctx, sub)
		if err != nil {
			return nil, err
		}
		doGlob := !cfg.NoGlob && !w.Flags.Has(NoGlob) && !w.Flags.Has(AssignRHS)
		for _, field := range fields {
			words, err := cfg.finishField(field, doGlob, w.Flags)
			if err != nil {
				return nil, err
			}
			out = append(out, words...)
		}
	}
	return out, nil
}

// finishField applies pathname expansion (when doGlob) and quote removal
// to one ESC/NS-encoded field.
func (cfg *Config) finishField(field []byte, doGlob bool, flags Flags) ([]*WordDesc, error) {
	if !doGlob {
		return []*WordDesc{{Word: string(quote.Dequote(field)), Flags: finishFlags(field, flags)}}, nil
	}
	matches, err := cfg.expandPathname(field)
	if err != nil {
		return nil, err
	}
	out := make([]*WordDesc, len(matches))
	for i, m := range matches {
		out[i] = &WordDesc{Word: m, Flags: flags &^ (Quoted | Assignment | AssignRHS)}
	}
	return out, nil
}

func finishFlags(field []byte, flags Flags) Flags {
	if quote.HasQuotedNull(field) {
		flags |= HasQuotedNull
	}
	return flags
}

// ExpandString runs the full pipeline over a bare string instead of a
// pre-built WordDesc, wrapping it in one first.
func (cfg *Config) ExpandString(ctx context.Context, s string, quotedContext bool) ([]string, error) {
	var flags Flags
	if quotedContext {
		flags |= Quoted
	}
	return cfg.ExpandFields(ctx, &WordDesc{Word: s, Flags: flags})
}

// ExpandToSingleString expands a bare string through [ExpandLiteral]:
// splitting and pathname expansion are suppressed, brace expansion does
// not run, and every resulting field is concatenated, for
// contexts that need one scalar result (e.g. a redirection target built
// from a bare string rather than a WordDesc).
func (cfg *Config) ExpandToSingleString(ctx context.Context, s string, quotedContext bool) (string, error) {
	var flags Flags
	if quotedContext {
		flags |= Quoted
	}
	return cfg.ExpandLiteral(ctx, &WordDesc{Word: s, Flags: flags})
}

// ExpandLiteral expands w with splitting and globbing both suppressed,
// returning its single dequoted string result — for contexts such as a
// redirection target or a `case` subject where the word is never split
// into multiple arguments, grounded on mvdan-sh's ExpandLiteral
// (expand/expand.go:91-98).
func (cfg *Config) ExpandLiteral(ctx context.Context, w *WordDesc) (string, error) {
	sub := &WordDesc{Word: w.Word, Flags: w.Flags | NoSplit | NoGlob}
	fields, _, err := cfg.expandWord(ctx, sub)
	if err != nil {
		return "", err
	}
	var out []byte
	for _, f := range fields {
		out = append(out, quote.Dequote(f)...)
	}
	return string(out), nil
}

// ExpandFields runs the full pipeline over words and returns every
// resulting field as a plain string, for a command's argument list,
// grounded on mvdan-sh's ExpandFields (expand/expand.go:217-252).
func (cfg *Config) ExpandFields(ctx context.Context, words ...*WordDesc) ([]string, error) {
	_, list, err := cfg.ExpandWordList(ctx, words, false)
	if err != nil {
		return nil, err
	}
	return list.Strings(), nil
}

// ExpandAssignmentRHS expands the value half of a NAME=value assignment:
// splitting and globbing are always suppressed regardless of w.Flags.
func (cfg *Config) ExpandAssignmentRHS(ctx context.Context, w *WordDesc) (string, error) {
	sub := &WordDesc{Word: w.Word, Flags: w.Flags | AssignRHS | NoGlob}
	fields, _, err := cfg.expandWord(ctx, sub)
	if err != nil {
		return "", err
	}
	var out []byte
	for _, f := range fields {
		out = append(out, quote.Dequote(f)...)
	}
	return string(out), nil
}

// ExpandForPattern expands w for use as a glob or `case` pattern: quote
// removal happens, but a byte that was quoted in the source is
// re-escaped as a pattern backslash-escape instead of being left bare,
// so a quoted metacharacter still matches only itself, grounded on
// mvdan-sh's ExpandPattern (expand/expand.go:253-278).
func (cfg *Config) ExpandForPattern(ctx context.Context, w *WordDesc) (string, error) {
	sub := &WordDesc{Word: w.Word, Flags: w.Flags | NoSplit | NoGlob}
	fields, _, err := cfg.expandWord(ctx, sub)
	if err != nil {
		return "", err
	}
	var out []byte
	for _, f := range fields {
		out = append(out, []byte(patternEscape(quote.RemoveQuotedNulls(f)))...)
	}
	return string(out), nil
}

// ExpandDollarQuoteTranslate decodes the \n, \t, \r and \\ backslash
// escapes of a $'...' word's content; any other backslash sequence is
// copied unchanged. It reuses the same escape table the `@E`
// parameter transform applies
// (param.go's expandANSIC), since both decode the identical escape
// grammar; $'...' behaves as though its result were single-quoted, so
// the caller is expected to treat it as already shielded from further
// expansion rather than feeding it back through ExpandFields.
func ExpandDollarQuoteTranslate(s string) string {
	return expandANSIC(s)
}

// ExpandPrompt decodes PS1-style prompt escapes, a feature mvdan-sh does
// not implement (it has no interactive prompt), grounded instead on
// bash's own documented escape table (\u, \h, \H, \w, \W, \$, \t, \d,
// \n, \\, and \[ \] as no-op bracket markers for non-printing
// sequences).
func (cfg *Config) ExpandPrompt(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'u':
			b.WriteString(cfg.envGet("USER"))
		case 'h':
			if host, err := os.Hostname(); err == nil {
				b.WriteString(strings.SplitN(host, ".", 2)[0])
			}
		case 'H':
			if host, err := os.Hostname(); err == nil {
				b.WriteString(host)
			}
		case 'w':
			b.WriteString(promptCollapseHome(cfg.envGet("PWD"), cfg.envGet("HOME")))
		case 'W':
			pwd := promptCollapseHome(cfg.envGet("PWD"), cfg.envGet("HOME"))
			if idx := strings.LastIndexByte(pwd, '/'); idx >= 0 && idx+1 < len(pwd) {
				pwd = pwd[idx+1:]
			}
			b.WriteString(pwd)
		case '$':
			if cfg.envGet("UID") == "0" {
				b.WriteByte('#')
			} else {
				b.WriteByte('$')
			}
		case 't':
			b.WriteString(time.Now().Format("15:04:05"))
		case 'd':
			b.WriteString(time.Now().Format("Mon Jan 02"))
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		case '[', ']':
			// No-op markers bracketing non-printing escape sequences;
			// consumed silently, matching bash's readline behavior.
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func promptCollapseHome(pwd, home string) string {
	if home == "" {
		return pwd
	}
	if pwd == home {
		return "~"
	}
	if strings.HasPrefix(pwd, home+"/") {
		return "~" + pwd[len(home):]
	}
	return pwd
}

// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shellcore/wordexp/quote"
)

// wordscan.go implements the single-pass state machine that scans one
// word, dispatching tilde, parameter, command, arithmetic, and process
// substitution as it goes. It is grounded on how mvdan-sh's
// wordField/wordFields pair (expand/expand.go:279-422) walks
// *syntax.DblQuoted/*syntax.ParamExp/*syntax.CmdSubst nodes, re-expressed
// as a byte-scanning state machine over a raw WordDesc string since our
// word has no part tree (the outer parser is out of scope here).
//
// Unlike mvdan-sh, which only ever needs to special-case "${@}" exactly
// (expand/expand.go:424-440, quotedElems), this scanner builds its result
// as a sequence of fields from the start (mirroring wordFields' curField/
// fields accumulator), so that an arbitrary "$@" appearing anywhere in a
// word — quoted or not — correctly splits the surrounding word into
// multiple output fields instead of only the exact-match fast path.

// ExpFlags are the per-call expansion flags bitset, threaded through
// recursive calls unchanged except where documented.
type ExpFlags uint8

const (
	QDoubleQuotes ExpFlags = 1 << iota
	QHereDocument
	QArith
	QPatQuote
	QDolBrace
	// qNoSplit is engine-internal: it marks the recursive expansion of an
	// operator word on the RHS of -/=/?/+ or of an assignment's RHS,
	// where splitting is disabled.
	qNoSplit
)

func (f ExpFlags) Has(want ExpFlags) bool { return f&want == want }

// quotedState tracks whether the word as a whole was fully enclosed in
// quotes, which governs the empty-result policy at the end of the scan.
type quotedState int

const (
	qsUnquoted quotedState = iota
	qsPartiallyQuoted
	qsWhollyQuoted
)

// wordScanner holds the state a single word-expansion pass needs.
type wordScanner struct {
	cfg   *Config
	ctx   context.Context
	ex    *Extractor
	input string

	sindex int // read cursor into input

	flags ExpFlags

	fields        [][]byte // completed output fields (still ESC/NS-encoded)
	cur           []byte   // accumulator for the field under construction
	curAllowEmpty bool     // this field is kept even if empty (came from a quote)

	quotedState    quotedState
	quotedDollarAt bool // saw a quoted "$@" in this word
	hadQuotedNull  bool
	hasDollarAt    bool // saw any $@, quoted or not
	splitOnSpaces  bool // force ASCII-space split (unquoted $* w/ unset IFS)
	assignOff      int  // offset of the first '=' in the whole word, or -1
	internalTilde  bool // saw ":~" or "=~" requiring a mid-word tilde
	hasQuotedIFS   bool // an IFS char was ESC-escaped somewhere

	// noCmdSubst/noProcSubst mirror the WordDesc-level
	// NoCmdSubst/NoProcSubst suppression flags, set by the caller that
	// owns the WordDesc.
	noCmdSubst  bool
	noProcSubst bool
}

func newWordScanner(cfg *Config, ctx context.Context, s string, flags ExpFlags) *wordScanner {
	ws := &wordScanner{cfg: cfg, ctx: ctx, ex: &Extractor{}, input: s, flags: flags, assignOff: -1}
	if flags.Has(QDoubleQuotes) {
		ws.quotedState = qsWhollyQuoted
	}
	return ws
}

func (ws *wordScanner) quoted() bool { return ws.flags.Has(QDoubleQuotes) }

// flush closes out the current field accumulator, emitting it (even if
// empty) when curAllowEmpty is set.
func (ws *wordScanner) flush() {
	if len(ws.cur) == 0 && !ws.curAllowEmpty {
		ws.cur = nil
		return
	}
	ws.fields = append(ws.fields, ws.cur)
	ws.cur, ws.curAllowEmpty = nil, false
}

// emitByte appends a single literal byte, self-escaping it if it
// collides with ESC or NS, ESC-escaping it if it is an IFS character
// that must survive splitting because we are inside quotes or in a
// no-split context, and ESC-escaping it if it is a glob metacharacter
// written inside double quotes, so a literal "*" stays literal through
// pathname expansion.
func (ws *wordScanner) emitByte(b byte) {
	switch {
	case b == quote.ESC || b == quote.NS:
		ws.cur = append(ws.cur, quote.ESC, b)
	case (ws.quoted() || ws.flags.Has(qNoSplit)) && ws.cfg.isIFSByte(b):
		ws.cur = append(ws.cur, quote.ESC, b)
		ws.hasQuotedIFS = true
	case ws.quoted() && isGlobMetaByte(b):
		ws.cur = append(ws.cur, quote.ESC, b)
	default:
		ws.cur = append(ws.cur, b)
	}
}

// emitProtectedByte is like emitByte, but always shields an IFS byte
// regardless of quote state — used for backslash-escaped and
// single-quoted characters, which must never split even outside double
// quotes. It also shields glob metacharacters, so pathname expansion
// later sees them as literal rather than live, matching bash treating
// a quoted or backslash-escaped "*" as just an asterisk.
func (ws *wordScanner) emitProtectedByte(b byte) {
	switch {
	case b == quote.ESC || b == quote.NS:
		ws.cur = append(ws.cur, quote.ESC, b)
	case ws.cfg.isIFSByte(b):
		ws.cur = append(ws.cur, quote.ESC, b)
		ws.hasQuotedIFS = true
	case isGlobMetaByte(b):
		ws.cur = append(ws.cur, quote.ESC, b)
	default:
		ws.cur = append(ws.cur, b)
	}
}

func (ws *wordScanner) emitBytes(s []byte) {
	for _, b := range s {
		ws.emitByte(b)
	}
}

func (ws *wordScanner) emitString(s string) {
	ws.emitBytes([]byte(s))
}

// emitLiteralRun appends a run of unquoted source text: single bytes go
// through emitByte (so IFS bytes are escaped only inside quotes or in a
// no-split context), multibyte runes are copied as-is, one full rune at a time when
// multibyte is enabled so no code point is ever split.
func (ws *wordScanner) emitLiteralRun(s string) {
	if !ws.cfg.Multibyte {
		ws.emitString(s)
		return
	}
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		if size <= 0 {
			size = 1
		}
		if size == 1 {
			ws.emitByte(s[i])
		} else {
			ws.cur = append(ws.cur, s[i:i+size]...)
		}
		i += size
	}
}

// isIFSByte reports whether b is one of the engine's current IFS bytes.
func (c *Config) isIFSByte(b byte) bool {
	ifs := c.ifs
	if !c.ifsSet {
		ifs = " \t\n"
	}
	for i := 0; i < len(ifs); i++ {
		if ifs[i] == b {
			return true
		}
	}
	return false
}

// addUnquotedField appends an already-computed unquoted expansion result
// (a parameter, command-substitution, or arithmetic result): it is
// immediately split on IFS when splitting is in effect, matching
// mvdan-sh's splitAdd (expand/expand.go:349-356), generalized to call
// the full Splitter (split.go) instead of strings.FieldsFunc.
func (ws *wordScanner) addUnquotedField(s string) {
	if ws.flags.Has(qNoSplit) {
		ws.emitLiteralRun(s)
		return
	}
	parts := ws.cfg.splitFields([]byte(s))
	if len(parts) == 0 {
		return
	}
	for i, part := range parts {
		if i > 0 {
			ws.flush()
		}
		ws.emitLiteralRun(part)
	}
}

// addQuotedField appends an already-quoted (ESC-shielded) expansion
// result as opaque bytes: it is never split or globbed further.
func (ws *wordScanner) addQuotedField(shielded []byte) {
	ws.cur = append(ws.cur, shielded...)
}

// addMultiField handles a "$@"/"${arr[@]}"-shaped result with more than
// one element: the first element attaches to whatever came before it in
// the current field, subsequent elements each start a new field, and the
// last one is left open so trailing text in the word attaches to it —
// matching real shells' handling of e.g. "pre$@post" with three positional
// parameters expanding to "preA", "B", "Cpost".
func (ws *wordScanner) addMultiField(elems []string, quotedElems bool) {
	ws.hasDollarAt = true
	if ws.quoted() {
		ws.quotedDollarAt = true
	}
	if len(elems) == 0 {
		ws.curAllowEmpty = true
		return
	}
	for i, e := range elems {
		if i > 0 {
			ws.flush()
			ws.curAllowEmpty = true
		}
		if quotedElems {
			ws.addQuotedField(quote.QuoteString([]byte(e), ws.cfg.Multibyte))
		} else {
			ws.addUnquotedField(e)
		}
	}
}

// scan runs the main per-byte character dispatch loop over the word.
func (ws *wordScanner) scan() error {
	s := ws.input
	n := len(s)
	for ws.sindex < n {
		b := s[ws.sindex]
		switch {
		case b == 0:
			ws.sindex = n
		case b == '\\':
			ws.scanBackslash()
		case b == '\'' && !ws.quoted():
			if err := ws.scanSingleQuoted(); err != nil {
				return err
			}
		case b == '"':
			if err := ws.scanDoubleQuoted(); err != nil {
				return err
			}
		case b == '`':
			if err := ws.scanBackquoted(); err != nil {
				return err
			}
		case b == '$':
			if err := ws.scanDollar(); err != nil {
				return err
			}
		case b == '~' && ws.atTildePosition():
			ws.scanTilde()
		case (b == '<' || b == '>') && ws.sindex+1 < n && s[ws.sindex+1] == '(' &&
			!ws.quoted() && !ws.flags.Has(qNoSplit):
			if err := ws.scanProcSubst(); err != nil {
				return err
			}
		case b == '=' && ws.assignOff < 0:
			ws.assignOff = len(ws.cur)
			ws.emitByte(b)
			ws.sindex++
		case b == ':':
			ws.emitByte(b)
			ws.sindex++
			if ws.assignOff >= 0 && ws.sindex < n && s[ws.sindex] == '~' {
				ws.internalTilde = true
			}
		default:
			ws.emitLiteralRun(s[ws.sindex : ws.sindex+1])
			ws.sindex++
		}
	}
	return nil
}

// atTildePosition reports whether a '~' at the current index should be
// treated as a tilde-expansion anchor: the start of the word, right after
// the first '=' (an assignment's RHS), or right after a ':' when
// internalTilde was armed.
func (ws *wordScanner) atTildePosition() bool {
	if ws.quoted() {
		return false
	}
	if ws.sindex == 0 {
		return true
	}
	if ws.assignOff+1 == len(ws.cur) && ws.sindex > 0 && ws.input[ws.sindex-1] == '=' {
		return true
	}
	if ws.internalTilde && ws.sindex > 0 && ws.input[ws.sindex-1] == ':' {
		ws.internalTilde = false
		return true
	}
	return false
}

func (ws *wordScanner) scanTilde() {
	rest := ws.input[ws.sindex:]
	end := len(rest)
	for i := 1; i < len(rest); i++ {
		if rest[i] == '/' || rest[i] == ':' {
			end = i
			break
		}
	}
	prefix := rest[:end]
	if expanded, ok := ws.cfg.expandTildePrefix(prefix); ok {
		ws.emitLiteralRun(expanded)
	} else {
		ws.emitLiteralRun(prefix)
	}
	ws.sindex += end
}

// scanBackslash handles a backslash escape: quote the next byte, with
// different rules inside vs. outside double quotes.
func (ws *wordScanner) scanBackslash() {
	s := ws.input
	if ws.sindex+1 >= len(s) {
		ws.emitByte('\\')
		ws.sindex++
		return
	}
	next := s[ws.sindex+1]
	if ws.quoted() {
		switch next {
		case '$', '`', '"', '\\', '\n':
			if next == '\n' {
				ws.sindex += 2
				return
			}
			ws.emitProtectedByte(next)
			ws.sindex += 2
			return
		default:
			ws.emitByte('\\')
			ws.sindex++
			return
		}
	}
	if next == '\n' {
		ws.sindex += 2
		return
	}
	ws.emitProtectedByte(next)
	ws.sindex += 2
}

func (ws *wordScanner) scanSingleQuoted() error {
	content, end, err := ws.ex.ExtractSingleQuoted(ws.input, ws.sindex)
	if err != nil {
		return wrapExtractErr(err)
	}
	if ws.sindex == 0 && end == len(ws.input) {
		ws.quotedState = qsWhollyQuoted
	} else if ws.quotedState == qsUnquoted {
		ws.quotedState = qsPartiallyQuoted
	}
	ws.curAllowEmpty = true
	for i := 0; i < len(content); i++ {
		ws.emitProtectedByte(content[i])
	}
	ws.sindex = end
	return nil
}

// scanDoubleQuoted recursively expands the content of a "..." run via a
// nested wordScanner forced into QDoubleQuotes, then merges its fields
// back into the current scan.
func (ws *wordScanner) scanDoubleQuoted() error {
	content, end, err := ws.ex.ExtractDoubleQuoted(ws.input, ws.sindex)
	if err != nil {
		return wrapExtractErr(err)
	}
	if ws.sindex == 0 && end == len(ws.input) {
		ws.quotedState = qsWhollyQuoted
	} else if ws.quotedState == qsUnquoted {
		ws.quotedState = qsPartiallyQuoted
	}
	sub := newWordScanner(ws.cfg, ws.ctx, content, ws.flags|QDoubleQuotes)
	sub.noCmdSubst = ws.noCmdSubst
	sub.noProcSubst = ws.noProcSubst
	if err := sub.scan(); err != nil {
		return err
	}
	sub.flush()
	if sub.hasDollarAt {
		ws.hasDollarAt = true
		ws.quotedDollarAt = true
	}
	if sub.hadQuotedNull {
		ws.hadQuotedNull = true
	}
	switch len(sub.fields) {
	case 0:
		ws.curAllowEmpty = true
	case 1:
		ws.curAllowEmpty = true
		ws.cur = append(ws.cur, sub.fields[0]...)
	default:
		for i, f := range sub.fields {
			if i > 0 {
				ws.flush()
				ws.curAllowEmpty = true
			}
			ws.cur = append(ws.cur, f...)
		}
	}
	ws.sindex = end
	return nil
}

func (ws *wordScanner) scanBackquoted() error {
	start := ws.sindex
	content, end, err := ws.ex.ExtractBackquoted(ws.input, start)
	if err != nil {
		return wrapExtractErr(err)
	}
	if ws.noCmdSubst {
		ws.emitLiteralRun(ws.input[start:end])
		ws.sindex = end
		return nil
	}
	// Backtick command substitution historically unescapes \$, \`, \\
	// before running the command (bash's bash_xpand_word_internal).
	content = unescapeBackquoted(content)
	out, err := ws.cfg.runCmdSubst(ws.ctx, content, ws.quoted())
	if err != nil {
		return err
	}
	ws.sindex = end
	return ws.appendCmdSubstResult(out)
}

func unescapeBackquoted(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '$' || s[i+1] == '`' || s[i+1] == '\\') {
			b.WriteByte(s[i+1])
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (ws *wordScanner) appendCmdSubstResult(out []byte) error {
	if ws.quoted() || ws.flags.Has(qNoSplit) {
		ws.curAllowEmpty = true
		ws.cur = append(ws.cur, out...)
		return nil
	}
	ws.addUnquotedField(string(out))
	return nil
}

// scanDollar handles a '$' and dispatches on the character that follows
// it.
func (ws *wordScanner) scanDollar() error {
	s := ws.input
	i := ws.sindex
	if i+1 >= len(s) {
		ws.emitByte('$')
		ws.sindex++
		return nil
	}
	switch {
	case s[i+1] == '{':
		return ws.scanDollarBrace()
	case strings.HasPrefix(s[i:], "$(("):
		return ws.scanArithOrCmdSubst()
	case s[i+1] == '(':
		content, end, err := ws.ex.ExtractCommandSubst(s, i)
		if err != nil {
			return wrapExtractErr(err)
		}
		if ws.noCmdSubst {
			ws.emitLiteralRun(s[i:end])
			ws.sindex = end
			return nil
		}
		out, err := ws.cfg.runCmdSubst(ws.ctx, content, ws.quoted())
		if err != nil {
			return err
		}
		ws.sindex = end
		return ws.appendCmdSubstResult(out)
	case s[i+1] >= '0' && s[i+1] <= '9':
		return ws.scanDollarName(s[i+1 : i+2])
	case isParamNameByte(s[i+1]) || s[i+1] == '_':
		j := i + 1
		for j < len(s) && isParamNameByte(s[j]) {
			j++
		}
		name := s[i+1 : j]
		ws.sindex = j
		return ws.evalAndAppend(&paramSpec{Name: name})
	case strings.IndexByte("@*#?-$!0", s[i+1]) >= 0:
		return ws.scanDollarName(s[i+1 : i+2])
	default:
		ws.emitByte('$')
		ws.sindex++
		return nil
	}
}

func (ws *wordScanner) scanDollarName(name string) error {
	ws.sindex += 1 + len(name)
	return ws.evalAndAppend(&paramSpec{Name: name})
}

func (ws *wordScanner) scanDollarBrace() error {
	content, end, err := ws.ex.ExtractDollarBrace(ws.input, ws.sindex)
	if err != nil {
		return wrapExtractErr(err)
	}
	ps, err := parseParamSpec(content, ws.ex)
	if err != nil {
		return err
	}
	ws.sindex = end
	return ws.evalAndAppend(ps)
}

func (ws *wordScanner) evalAndAppend(ps *paramSpec) error {
	res, err := ws.cfg.expandParam(ws.ctx, ps, ws.ex)
	if err != nil {
		return err
	}
	if res.Fields != nil {
		ws.addMultiField(res.Fields, ws.quoted())
		return nil
	}
	if ws.quoted() || ws.flags.Has(qNoSplit) {
		if ws.quoted() {
			ws.curAllowEmpty = true
			ws.cur = append(ws.cur, quote.QuoteString([]byte(res.Str), ws.cfg.Multibyte)...)
		} else {
			ws.emitLiteralRun(res.Str)
		}
		if res.Str == "" && ws.quoted() {
			ws.hadQuotedNull = true
		}
		return nil
	}
	ws.addUnquotedField(res.Str)
	return nil
}

// scanArithOrCmdSubst implements the "$((...))"/"$(...)" ambiguity: bash
// tries arithmetic first and falls back to command substitution if the
// double-paren form cannot be balanced, matching bash's own historical
// behavior.
func (ws *wordScanner) scanArithOrCmdSubst() error {
	expr, end, ok := extractArithExpr(ws.input, ws.sindex)
	if ok {
		val, err := Arithm(ws.cfg, expr)
		if err != nil {
			return err
		}
		ws.sindex = end
		ws.emitLiteralRun(strconv.Itoa(val))
		return nil
	}
	content, end, err := ws.ex.ExtractCommandSubst(ws.input, ws.sindex)
	if err != nil {
		return wrapExtractErr(err)
	}
	if ws.noCmdSubst {
		ws.emitLiteralRun(ws.input[ws.sindex:end])
		ws.sindex = end
		return nil
	}
	out, err := ws.cfg.runCmdSubst(ws.ctx, content, ws.quoted())
	if err != nil {
		return err
	}
	ws.sindex = end
	return ws.appendCmdSubstResult(out)
}

// extractArithExpr consumes a balanced "$((...))" starting at s[from:from+3]
// == "$((", returning the content between the two paren pairs.
func extractArithExpr(s string, from int) (expr string, end int, ok bool) {
	if !strings.HasPrefix(s[from:], "$((") {
		return "", 0, false
	}
	i := from + 3
	depth := 1
	start := i
	for i < len(s) {
		switch s[i] {
		case '(':
			depth++
			i++
		case ')':
			depth--
			i++
			if depth == 0 {
				if i < len(s) && s[i] == ')' {
					return s[start : i-1], i + 1, true
				}
				return "", 0, false
			}
		default:
			i++
		}
	}
	return "", 0, false
}

func (ws *wordScanner) scanProcSubst() error {
	start := ws.sindex
	content, end, err := ws.ex.ExtractProcSubst(ws.input, start)
	if err != nil {
		return wrapExtractErr(err)
	}
	op := ProcSubstIn
	if ws.input[start] == '>' {
		op = ProcSubstOut
	}
	full := ws.input[start:end]
	ws.sindex = end
	if ws.noProcSubst || ws.cfg.ProcSubst == nil {
		// Suppressed by the caller, or no process-substitution capability
		// wired; degrade to the literal text rather than failing the
		// whole expansion.
		ws.emitLiteralRun(full)
		return nil
	}
	path, err := ws.cfg.ProcSubst(ws.ctx, op, CmdSubstSource(content))
	if err != nil {
		logSystemError("procsubst", err)
		return nil
	}
	ws.emitLiteralRun(path)
	return nil
}

// finish closes the final field accumulator, and applies the
// empty-result and quoted-null policies.
func (ws *wordScanner) finish() {
	ws.flush()
	if len(ws.fields) == 0 {
		if ws.hadQuotedNull || ws.quotedState != qsUnquoted {
			ws.fields = [][]byte{{quote.NS}}
			ws.hadQuotedNull = true
		}
		return
	}
	if len(ws.fields) == 1 && quote.HasQuotedNull(ws.fields[0]) {
		ws.hadQuotedNull = true
	}
}

// expandWord runs the word-internal expansion state machine over w,
// honoring w.Flags' Quoted/NoSplit/AssignRHS/NoCmdSubst/NoProcSubst
// suppression bits, and returns the resulting fields still
// ESC/NS-encoded. Quote removal happens only after pathname expansion
// runs over these fields, so it is left to the caller (the top-level
// driver), not performed here.
func (c *Config) expandWord(ctx context.Context, w *WordDesc) (fields [][]byte, hadQuotedNull bool, err error) {
	var flags ExpFlags
	if w.Flags.Has(Quoted) {
		flags |= QDoubleQuotes
	}
	if w.Flags.Has(NoSplit) || w.Flags.Has(AssignRHS) {
		flags |= qNoSplit
	}
	ws := newWordScanner(c, ctx, w.Word, flags)
	ws.noCmdSubst = w.Flags.Has(NoCmdSubst)
	ws.noProcSubst = w.Flags.Has(NoProcSubst)
	if err := ws.scan(); err != nil {
		return nil, false, err
	}
	ws.finish()
	return ws.fields, ws.hadQuotedNull, nil
}

// expandWordString is the recursive entry point used for the operator-word
// arguments of parameter-expansion operators: a plain string, not a
// WordDesc, expanded with splitting controlled solely by noSplit rather
// than by any flag bundle. It returns fully dequoted output fields,
// since operator words never flow through pathname expansion and so
// need no further ESC/NS-encoded stage.
func (c *Config) expandWordString(ctx context.Context, s string, noSplit bool) ([]string, bool, error) {
	var flags ExpFlags
	if noSplit {
		flags |= qNoSplit
	}
	ws := newWordScanner(c, ctx, s, flags)
	if err := ws.scan(); err != nil {
		return nil, false, err
	}
	ws.finish()
	out := make([]string, len(ws.fields))
	for i, f := range ws.fields {
		out[i] = string(quote.Dequote(f))
	}
	return out, ws.hadQuotedNull, nil
}

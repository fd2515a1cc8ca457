// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"mvdan.cc/sh/v3/pattern"
)

// param.go implements ${name...} and every bash parameter-expansion
// operator. It is ported from mvdan-sh's expand/param.go (the switch
// over parameter-expansion operators, varStr/varInd/namesByPrefix, and
// removePattern), restructured to parse its own little grammar out of a
// plain string — the content between "${" and "}" already isolated by
// extract.go — instead of walking a *syntax.ParamExp AST, since the outer
// parser is out of scope here.

// paramSpec is the parsed shape of a parameter expansion's content.
type paramSpec struct {
	Excl   bool // leading '!': indirection, prefix-list, or keys-list
	Length bool // leading '#name': length-of

	Name  string
	Index string // raw subscript text between [ and ], "" if none

	// Op is the operator byte (bash's parameter-expansion operator
	// table); zero means no operator (plain ${name}).
	Op    byte
	Colon bool // ':' variant of -,=,?,+
	Dbl   bool // doubled variant of #,%,/,^,~,,
	Anchor byte // for '/': '#' (prefix-anchored) or '%' (suffix-anchored), else 0
	Arg    string
	Arg2   string // replacement text for '/'; second half of ':off:len'

	PrefixList bool // "!PFX*" / "!PFX@"
	PrefixAt   bool // the "@" form of the above, or of a plain @/* index
	KeysList   bool // "!NAME[@]" / "!NAME[*]"
}

// parseParamSpec parses the content of a ${...} expansion.
func parseParamSpec(s string, ex *Extractor) (*paramSpec, error) {
	ps := &paramSpec{}
	i := 0
	if strings.HasPrefix(s, "!") && s != "!" && s != "!!" {
		ps.Excl = true
		i++
	}
	if !ps.Excl && strings.HasPrefix(s[i:], "#") && len(s) > i+1 && isParamNameByte(s[i+1]) {
		ps.Length = true
		i++
	}
	// name
	switch {
	case i < len(s) && s[i] >= '0' && s[i] <= '9':
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		ps.Name = s[start:i]
	case i < len(s) && strings.IndexByte("@*#?-$!0_", s[i]) >= 0:
		ps.Name = string(s[i])
		i++
	case i < len(s):
		start := i
		for i < len(s) && isParamNameByte(s[i]) {
			i++
		}
		ps.Name = s[start:i]
	}
	if ps.Name == "" && !ps.Length {
		return nil, fatalf("bad substitution")
	}
	// array subscript
	if i < len(s) && s[i] == '[' {
		content, end, err := ex.ExtractArraySubscript(s, i)
		if err != nil {
			return nil, &ExpansionError{Message: "bad substitution: no closing ']'", Unwind: Discard, Cause: err}
		}
		ps.Index = content
		i = end
	}
	rest := s[i:]
	switch {
	case ps.Excl && ps.Index == "" && (rest == "*" || rest == "@"):
		ps.PrefixList = true
		ps.PrefixAt = rest == "@"
		return ps, nil
	case ps.Excl && (ps.Index == "@" || ps.Index == "*"):
		ps.KeysList = true
		ps.PrefixAt = ps.Index == "@"
		return ps, nil
	}
	if ps.Index == "@" || ps.Index == "*" {
		ps.PrefixAt = ps.Index == "@"
	}
	if rest == "" {
		return ps, nil
	}
	if err := parseParamOp(ps, rest, ex); err != nil {
		return nil, err
	}
	return ps, nil
}

func parseParamOp(ps *paramSpec, rest string, ex *Extractor) error {
	colon := false
	if rest[0] == ':' && len(rest) > 1 && strings.IndexByte("-=?+", rest[1]) >= 0 {
		colon = true
		rest = rest[1:]
	}
	switch rest[0] {
	case '-', '=', '?', '+':
		ps.Op, ps.Colon, ps.Arg = rest[0], colon, rest[1:]
	case ':':
		ps.Op = ':'
		off, length, ok := strings.Cut(rest[1:], ":")
		ps.Arg, ps.Arg2 = off, length
		_ = ok
	case '#':
		ps.Op = '#'
		if len(rest) > 1 && rest[1] == '#' {
			ps.Dbl, ps.Arg = true, rest[2:]
		} else {
			ps.Arg = rest[1:]
		}
	case '%':
		ps.Op = '%'
		if len(rest) > 1 && rest[1] == '%' {
			ps.Dbl, ps.Arg = true, rest[2:]
		} else {
			ps.Arg = rest[1:]
		}
	case '/':
		ps.Op = '/'
		body := rest[1:]
		switch {
		case strings.HasPrefix(body, "/"):
			ps.Dbl, body = true, body[1:]
		case strings.HasPrefix(body, "#"):
			ps.Anchor, body = '#', body[1:]
		case strings.HasPrefix(body, "%"):
			ps.Anchor, body = '%', body[1:]
		}
		pat, end := ex.ExtractToDelim(body, 0, "/")
		ps.Arg = pat
		if end < len(body) {
			ps.Arg2 = body[end+1:]
		}
	case '^', '~', ',':
		ps.Op = rest[0]
		if len(rest) > 1 && rest[1] == rest[0] {
			ps.Dbl, ps.Arg = true, rest[2:]
		} else {
			ps.Arg = rest[1:]
		}
	case '@':
		ps.Op = '@'
		ps.Arg = rest[1:]
	default:
		return fatalf("bad substitution")
	}
	return nil
}

func isParamNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// paramResult is what evaluating a paramSpec produces: either a single
// scalar (Fields==nil) or a list of discrete fields (from $@, ${arr[@]}, or
// a prefix/keys listing), which the caller (wordscan.go) treats according
// to quoting rules for "$@"/"$*".
type paramResult struct {
	Str      string
	Fields   []string // non-nil for @-style multi-field results
	IsAtForm bool      // true if this came from an "@" (vs "*") index/name
}

// expandParam evaluates a parsed paramSpec against cfg.Env, mirroring
// mvdan-sh's paramExp (expand/param.go) operator by operator.
func (c *Config) expandParam(ctx context.Context, ps *paramSpec, ex *Extractor) (paramResult, error) {
	if ps.PrefixList {
		names := c.namesByPrefix(ps.Name)
		if ps.PrefixAt {
			return paramResult{Fields: names, IsAtForm: true}, nil
		}
		return paramResult{Str: strings.Join(names, c.ifsFirstOrSpace())}, nil
	}

	name := ps.Name
	if ps.Excl && !ps.KeysList {
		// Indirection: resolve Name to get the real name, one level,
		// matching ("at most once").
		ref := c.envGet(name)
		if ref == "" {
			if ps.KeysList {
				return paramResult{}, nil
			}
			return paramResult{}, nil
		}
		if !isIdentName(ref) && !isSpecialParamName(ref) {
			return paramResult{}, fatalf("%s: invalid indirect expansion", ref)
		}
		name = ref
	}

	vr := c.lookupParam(ctx, name)
	set := vr.IsSet()
	isAt := ps.Index == "@" || (name == "@" && ps.Index == "")
	isStar := ps.Index == "*" || (name == "*" && ps.Index == "")

	if ps.KeysList {
		keys := c.arrayKeys(vr)
		if ps.PrefixAt {
			return paramResult{Fields: keys, IsAtForm: true}, nil
		}
		return paramResult{Str: strings.Join(keys, c.ifsFirstOrSpace())}, nil
	}

	var elems []string
	str := c.varValue(vr, ps.Index, ctx)
	switch {
	case isAt || isStar:
		elems = c.arrayValues(vr)
	}

	switch {
	case ps.Length:
		n := 0
		if isAt || isStar {
			n = len(elems)
		} else {
			n = utf8.RuneCountInString(str)
		}
		return paramResult{Str: strconv.Itoa(n)}, nil
	case ps.Op == '-' || ps.Op == '=' || ps.Op == '?' || ps.Op == '+':
		return c.expandDefaultOp(ctx, ps, name, str, set, isAt, elems)
	case ps.Op == '#' || ps.Op == '%':
		return c.expandTrimOp(ctx, ps, str, elems, isAt || isStar)
	case ps.Op == '/':
		return c.expandReplaceOp(ctx, ps, str, elems, isAt || isStar)
	case ps.Op == ':':
		s, err := c.expandSliceOp(ctx, ps, str)
		return paramResult{Str: s}, err
	case ps.Op == '^' || ps.Op == '~' || ps.Op == ',':
		return c.expandCaseOp(ps, str, elems, isAt || isStar)
	case ps.Op == '@':
		s, err := c.expandAtOp(ps, str)
		return paramResult{Str: s}, err
	default:
		if isAt {
			return paramResult{Fields: elems, IsAtForm: true}, nil
		}
		if isStar {
			return paramResult{Str: c.ifsJoin(elems)}, nil
		}
		if !set && c.Unbound && name != "@" && name != "*" {
			return paramResult{}, &ExpansionError{
				Message: name + ": unbound variable",
				Unwind:  Discard,
				Cause:   UnsetParameterError{Name: name, Message: name + ": unbound variable"},
			}
		}
		return paramResult{Str: str}, nil
	}
}

func isSpecialParamName(s string) bool {
	return len(s) == 1 && strings.IndexByte("@*#?-$!0_", s[0]) >= 0
}

// lookupParam looks every name, LINENO included, up through cfg.Env,
// following nameref chains; with a nil Env the result is unset.
func (c *Config) lookupParam(ctx context.Context, name string) Variable {
	if c.Env == nil {
		return Variable{}
	}
	return c.resolveVar(c.Env.Get(name))
}

func (c *Config) varValue(vr Variable, index string, ctx context.Context) string {
	switch vr.Kind {
	case String, NameRef:
		return vr.Str
	case Indexed:
		if index == "" || index == "0" {
			if len(vr.List) > 0 {
				return vr.List[0]
			}
			return ""
		}
		if n, err := Arithm(c, index); err == nil && n >= 0 && n < len(vr.List) {
			return vr.List[n]
		}
		return ""
	case Associative:
		if vr.Map != nil {
			return vr.Map[index]
		}
	}
	return ""
}

func (c *Config) arrayValues(vr Variable) []string {
	switch vr.Kind {
	case Indexed:
		return vr.List
	case Associative:
		keys := make([]string, 0, len(vr.Map))
		for k := range vr.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = vr.Map[k]
		}
		return vals
	case String, NameRef:
		if vr.Str == "" {
			return nil
		}
		return []string{vr.Str}
	}
	return nil
}

func (c *Config) arrayKeys(vr Variable) []string {
	switch vr.Kind {
	case Indexed:
		keys := make([]string, len(vr.List))
		for i := range vr.List {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	case Associative:
		keys := make([]string, 0, len(vr.Map))
		for k := range vr.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}

func (c *Config) namesByPrefix(prefix string) []string {
	var names []string
	if c.Env == nil {
		return names
	}
	c.Env.Each(func(name string, vr Variable) bool {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return true
	})
	sort.Strings(names)
	return names
}

func (c *Config) ifsJoin(elems []string) string {
	return strings.Join(elems, c.ifsFirstOrSpace())
}

func (c *Config) ifsFirstOrSpace() string {
	if c.ifs == "" && c.ifsSet {
		return ""
	}
	if c.ifs == "" {
		return " "
	}
	return c.ifs[:1]
}

func (c *Config) expandDefaultOp(ctx context.Context, ps *paramSpec, name, str string, set, isAt bool, elems []string) (paramResult, error) {
	triggered := false
	switch ps.Op {
	case '-':
		triggered = !set || (ps.Colon && str == "" && !isAt)
	case '=':
		triggered = !set || (ps.Colon && str == "")
	case '?':
		triggered = !set || (ps.Colon && str == "")
	case '+':
		triggered = set && !(ps.Colon && str == "")
	}
	switch ps.Op {
	case '+':
		if triggered {
			word, err := c.expandOperatorWord(ctx, ps.Arg)
			return paramResult{Str: word}, err
		}
		return paramResult{Str: ""}, nil
	case '?':
		if triggered {
			word, _ := c.expandOperatorWord(ctx, ps.Arg)
			if word == "" {
				word = name + ": parameter null or not set"
			}
			return paramResult{}, &ExpansionError{Message: word, Unwind: Discard}
		}
		if isAt {
			return paramResult{Fields: elems, IsAtForm: true}, nil
		}
		return paramResult{Str: str}, nil
	case '=':
		if triggered {
			if isSpecialParamName(name) {
				return paramResult{}, fatalf("%s: cannot assign in this way", name)
			}
			word, err := c.expandOperatorWord(ctx, ps.Arg)
			if err != nil {
				return paramResult{}, err
			}
			if err := c.envSet(name, word); err != nil {
				return paramResult{}, err
			}
			return paramResult{Str: word}, nil
		}
		if isAt {
			return paramResult{Fields: elems, IsAtForm: true}, nil
		}
		return paramResult{Str: str}, nil
	default: // '-'
		if triggered {
			word, err := c.expandOperatorWord(ctx, ps.Arg)
			return paramResult{Str: word}, err
		}
		if isAt {
			return paramResult{Fields: elems, IsAtForm: true}, nil
		}
		return paramResult{Str: str}, nil
	}
}

// expandOperatorWord expands the word argument of -/=/?/+, recursively,
// with splitting disabled.
func (c *Config) expandOperatorWord(ctx context.Context, word string) (string, error) {
	if word == "" {
		return "", nil
	}
	fields, _, err := c.expandWordString(ctx, word, true)
	if err != nil {
		return "", err
	}
	return strings.Join(fields, ""), nil
}

func (c *Config) expandTrimOp(ctx context.Context, ps *paramSpec, str string, elems []string, multi bool) (paramResult, error) {
	pat, err := c.expandOperatorWord(ctx, ps.Arg)
	if err != nil {
		return paramResult{}, err
	}
	suffix := ps.Op == '%'
	trim := func(s string) string { return removePattern(s, pat, suffix, ps.Dbl) }
	if multi {
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = trim(e)
		}
		return paramResult{Fields: out, IsAtForm: true}, nil
	}
	return paramResult{Str: trim(str)}, nil
}

func removePattern(str, pat string, fromEnd, greedy bool) string {
	if pat == "" {
		return str
	}
	mode := pattern.Mode(0)
	if !greedy {
		mode |= pattern.Shortest
	}
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	switch {
	case fromEnd && !greedy:
		expr = ".*(" + expr + ")$"
	case fromEnd:
		expr = "(" + expr + ")$"
	default:
		expr = "^(" + expr + ")"
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return str
	}
	if loc := rx.FindStringSubmatchIndex(str); loc != nil {
		return str[:loc[2]] + str[loc[3]:]
	}
	return str
}

func (c *Config) expandReplaceOp(ctx context.Context, ps *paramSpec, str string, elems []string, multi bool) (paramResult, error) {
	pat, err := c.expandOperatorWord(ctx, ps.Arg)
	if err != nil {
		return paramResult{}, err
	}
	with, err := c.expandOperatorWord(ctx, ps.Arg2)
	if err != nil {
		return paramResult{}, err
	}
	with = expandReplacementAmpersand(with, pat)
	replace := func(s string) string { return replacePattern(s, pat, with, ps.Dbl, ps.Anchor) }
	if multi {
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = replace(e)
		}
		return paramResult{Fields: out, IsAtForm: true}, nil
	}
	return paramResult{Str: replace(str)}, nil
}

// expandReplacementAmpersand resolves the replacement text's `&` (matched
// text) and `\&`/`\\` escapes relative to the whole matched substring; since
// that substring varies per occurrence, this only resolves the literal
// escapes here and leaves `&` as a placeholder token `\x00&` for
// replacePattern to substitute per-match.
func expandReplacementAmpersand(with, _ string) string {
	var b strings.Builder
	for i := 0; i < len(with); i++ {
		if with[i] == '\\' && i+1 < len(with) && (with[i+1] == '&' || with[i+1] == '\\') {
			b.WriteByte(with[i+1])
			i++
			continue
		}
		if with[i] == '&' {
			b.WriteString("\x00&")
			continue
		}
		b.WriteByte(with[i])
	}
	return b.String()
}

func replacePattern(str, pat, with string, all bool, anchor byte) string {
	if pat == "" {
		return str
	}
	mode := pattern.Mode(0)
	expr, err := pattern.Regexp(pat, mode)
	if err != nil {
		return str
	}
	switch anchor {
	case '#':
		expr = "^(" + expr + ")"
	case '%':
		expr = "(" + expr + ")$"
	}
	rx, err := regexp.Compile(expr)
	if err != nil {
		return str
	}
	n := 1
	if all {
		n = -1
	}
	locs := rx.FindAllStringIndex(str, n)
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(str[last:loc[0]])
		b.WriteString(expandAmpersandMatch(with, str[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(str[last:])
	return b.String()
}

func expandAmpersandMatch(with, matched string) string {
	return strings.ReplaceAll(with, "\x00&", matched)
}

func (c *Config) expandSliceOp(ctx context.Context, ps *paramSpec, str string) (string, error) {
	rs := []rune(str)
	n := len(rs)
	off := 0
	if ps.Arg != "" {
		o, err := Arithm(c, ps.Arg)
		if err != nil {
			return "", err
		}
		off = o
	}
	if off < 0 {
		off += n
		if off < 0 {
			off = 0
		}
	}
	if off > n {
		off = n
	}
	end := n
	if ps.Arg2 != "" {
		l, err := Arithm(c, ps.Arg2)
		if err != nil {
			return "", err
		}
		if l < 0 {
			end = n + l
		} else {
			end = off + l
		}
	}
	if end > n {
		end = n
	}
	if end < off {
		return "", fatalf("%s: substring expression < 0", ps.Name)
	}
	return string(rs[off:end]), nil
}

func (c *Config) expandCaseOp(ps *paramSpec, str string, elems []string, multi bool) (paramResult, error) {
	caseFunc := unicode.ToUpper
	switch ps.Op {
	case ',':
		caseFunc = unicode.ToLower
	case '~':
		caseFunc = toggleRune
	}
	all := ps.Dbl
	var matchAny func(r rune) bool
	if ps.Arg == "" {
		matchAny = func(rune) bool { return true }
	} else {
		expr, err := pattern.Regexp(ps.Arg, 0)
		if err == nil {
			if rx, err := regexp.Compile(expr); err == nil {
				matchAny = func(r rune) bool { return rx.MatchString(string(r)) }
			}
		}
		if matchAny == nil {
			matchAny = func(rune) bool { return true }
		}
	}
	apply := func(s string) string {
		rs := []rune(s)
		for i, r := range rs {
			if matchAny(r) {
				rs[i] = caseFunc(r)
				if !all {
					break
				}
			}
		}
		return string(rs)
	}
	if multi {
		out := make([]string, len(elems))
		for i, e := range elems {
			out[i] = apply(e)
		}
		return paramResult{Fields: out, IsAtForm: true}, nil
	}
	return paramResult{Str: apply(str)}, nil
}

func toggleRune(r rune) rune {
	if unicode.IsUpper(r) {
		return unicode.ToLower(r)
	}
	return unicode.ToUpper(r)
}

func (c *Config) expandAtOp(ps *paramSpec, str string) (string, error) {
	switch ps.Arg {
	case "U":
		return strings.ToUpper(str), nil
	case "u":
		if str == "" {
			return str, nil
		}
		r, size := utf8.DecodeRuneInString(str)
		return string(unicode.ToUpper(r)) + str[size:], nil
	case "L":
		return strings.ToLower(str), nil
	case "Q":
		return quoteForReuse(str), nil
	case "E":
		return expandANSIC(str), nil
	case "P":
		return c.ExpandPrompt(str), nil
	case "A", "a", "K", "k":
		// Declaration form, attribute flags, and associative key/value
		// forms need a variable-attribute model (declare -p-style
		// metadata) this package does not own, unlike @P which is pure
		// string transformation and is wired to ExpandPrompt above.
		return "", fatalf("@%s transform is not supported", ps.Arg)
	default:
		return "", fatalf("bad substitution")
	}
}

func quoteForReuse(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, "'\"\\ \t\n$`|&;()<>*?[]#~=%!{}") {
		return s
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func expandANSIC(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte(s[i])
			continue
		}
		i++
	}
	return b.String()
}

// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import "strconv"

// brace.go implements brace expansion. It is grounded on mvdan-sh's
// two-phase design — syntax/braces.go's SplitBraces builds a tree of
// literal runs and *BraceExp alternatives, and syntax/expand.go's
// ExpandBraces walks that tree with expandRec, producing the cartesian
// product of every alternative in left-to-right, depth-first order — but
// re-expressed over a flat string instead of *syntax.Word/*syntax.Lit,
// since a WordDesc carries no parts tree.

// braceSegment is one piece of a word as seen by the splitter: either a
// literal run, or a nested brace alternation.
type braceSegment struct {
	lit  string
	expr *braceExpr // nil when this segment is a plain literal
}

// braceExpr is one {...} alternation. elems holds each comma- or
// range-separated alternative, itself a sequence of segments so that
// braces can nest arbitrarily.
type braceExpr struct {
	elems    [][]braceSegment
	sequence bool // true for a "{x..y[..incr]}" range form
	chars    bool // sequence endpoints are single letters, not numbers
}

// Braces performs brace expansion on s, returning every result in bash's
// enumeration order. It never errors: a malformed or unterminated brace
// expression degrades to its literal source text, matching SplitBraces'
// documented behavior ("a{b" is returned unchanged).
func Braces(s string) []string {
	segs, any := splitBraceWord(s)
	if !any {
		return []string{s}
	}
	return expandBraceSegments(segs)
}

// splitBraceWord parses s into a sequence of literal/alternation segments,
// mirroring SplitBraces' open-stack state machine (syntax/braces.go).
func splitBraceWord(s string) (segs []braceSegment, any bool) {
	top := &[]braceSegment{}
	acc := top
	var cur *braceExpr
	var open []*braceExpr

	pop := func() *braceExpr {
		old := cur
		open = open[:len(open)-1]
		if len(open) == 0 {
			cur = nil
			acc = top
		} else {
			cur = open[len(open)-1]
			acc = &cur.elems[len(cur.elems)-1]
		}
		return old
	}
	addLit := func(lit string) {
		if lit == "" {
			return
		}
		*acc = append(*acc, braceSegment{lit: lit})
	}
	addExpr := func(e *braceExpr) {
		*acc = append(*acc, braceSegment{expr: e})
	}

	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			addLit(s[last:i])
			next := []braceSegment{}
			cur = &braceExpr{elems: [][]braceSegment{next}}
			acc = &cur.elems[0]
			open = append(open, cur)
		case ',':
			if cur == nil {
				continue
			}
			addLit(s[last:i])
			cur.elems = append(cur.elems, []braceSegment{})
			acc = &cur.elems[len(cur.elems)-1]
		case '.':
			if cur == nil {
				continue
			}
			if i+1 >= len(s) || s[i+1] != '.' {
				continue
			}
			addLit(s[last:i])
			cur.sequence = true
			cur.elems = append(cur.elems, []braceSegment{})
			acc = &cur.elems[len(cur.elems)-1]
			i++
		case '}':
			if cur == nil {
				continue
			}
			any = true
			addLit(s[last:i])
			br := pop()
			if len(br.elems) == 1 {
				// "{x}" with no comma or range is not a brace
				// expansion; put the braces back literally.
				addLit("{")
				*acc = append(*acc, br.elems[0]...)
				addLit("}")
				last = i + 1
				continue
			}
			if !br.sequence {
				addExpr(br)
				last = i + 1
				continue
			}
			var chars [2]bool
			broken := false
			for idx, elem := range br.elems[:2] {
				val := segLit(elem)
				if _, err := strconv.Atoi(val); err == nil {
				} else if len(val) == 1 && 'a' <= val[0] && val[0] <= 'z' || len(val) == 1 && 'A' <= val[0] && val[0] <= 'Z' {
					chars[idx] = true
				} else {
					broken = true
				}
			}
			if len(br.elems) == 3 {
				if _, err := strconv.Atoi(segLit(br.elems[2])); err != nil {
					broken = true
				}
			}
			if chars[0] != chars[1] {
				broken = true
			}
			if len(br.elems) > 3 {
				broken = true
			}
			if !broken {
				br.chars = chars[0]
				addExpr(br)
				last = i + 1
				continue
			}
			addLit("{")
			for idx, elem := range br.elems {
				if idx > 0 {
					addLit("..")
				}
				*acc = append(*acc, elem...)
			}
			addLit("}")
		default:
			continue
		}
		last = i + 1
	}
	addLit(s[last:])

	// Unterminated "{...": fall back to literal text for every brace
	// that was never closed.
	for acc != top {
		br := pop()
		addLit("{")
		for idx, elem := range br.elems {
			if idx > 0 {
				if br.sequence {
					addLit("..")
				} else {
					addLit(",")
				}
			}
			*acc = append(*acc, elem...)
		}
	}
	return *top, any
}

// segLit returns the literal text of a segment sequence that is known to
// contain no nested alternation (a range endpoint).
func segLit(segs []braceSegment) string {
	out := ""
	for _, s := range segs {
		out += s.lit
	}
	return out
}

// expandBraceSegments walks segs left to right, maintaining the growing
// set of fully-expanded strings built so far, matching expandRec's
// cartesian-product recursion (syntax/expand.go).
func expandBraceSegments(segs []braceSegment) []string {
	results := []string{""}
	for _, seg := range segs {
		if seg.expr == nil {
			for i := range results {
				results[i] += seg.lit
			}
			continue
		}
		alts := expandBraceExpr(seg.expr)
		next := make([]string, 0, len(results)*len(alts))
		for _, prefix := range results {
			for _, alt := range alts {
				next = append(next, prefix+alt)
			}
		}
		results = next
	}
	return results
}

// expandBraceExpr enumerates every value a single {...} alternation
// produces, in bash's left-to-right order.
func expandBraceExpr(br *braceExpr) []string {
	if br.sequence {
		return expandBraceSequence(br)
	}
	var all []string
	for _, elem := range br.elems {
		all = append(all, expandBraceSegments(elem)...)
	}
	return all
}

// expandBraceSequence enumerates a "{x..y[..incr]}" range, supporting both
// numeric and single-letter endpoints and an optional signed increment,
// plus bash's zero-padding rule: if either numeric endpoint is written
// with a leading zero, every value is padded to the widest endpoint's
// width.
func expandBraceSequence(br *braceExpr) []string {
	fromS := segLit(br.elems[0])
	toS := segLit(br.elems[1])
	incr := 1
	if len(br.elems) == 3 {
		if n, err := strconv.Atoi(segLit(br.elems[2])); err == nil && n != 0 {
			incr = n
			if incr < 0 {
				incr = -incr
			}
		}
	}

	if br.chars {
		from, to := rune(fromS[0]), rune(toS[0])
		var out []string
		if from <= to {
			for c := from; c <= to; c += rune(incr) {
				out = append(out, string(c))
			}
		} else {
			for c := from; c >= to; c -= rune(incr) {
				out = append(out, string(c))
			}
		}
		return out
	}

	from, _ := strconv.Atoi(fromS)
	to, _ := strconv.Atoi(toS)
	width := 0
	if hasLeadingZero(fromS) || hasLeadingZero(toS) {
		width = len(fromS)
		if len(toS) > width {
			width = len(toS)
		}
	}
	pad := func(n int) string {
		str := strconv.Itoa(n)
		neg := ""
		if n < 0 {
			neg, str = "-", str[1:]
		}
		for len(str) < width-len(neg) {
			str = "0" + str
		}
		return neg + str
	}
	var out []string
	if from <= to {
		for n := from; n <= to; n += incr {
			out = append(out, pad(n))
		}
	} else {
		for n := from; n >= to; n -= incr {
			out = append(out, pad(n))
		}
	}
	return out
}

func hasLeadingZero(s string) bool {
	if len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}
	return len(s) > 1 && s[0] == '0'
}

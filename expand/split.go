// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package expand

import "github.com/shellcore/wordexp/quote"

// split.go implements IFS-aware word splitting. It generalizes a single
// default-whitespace path (mvdan-sh's ReadFields) to three modes: default
// IFS (also used when IFS is unset), custom IFS, and empty IFS.

// splitFields splits s on cfg's IFS. Bytes escaped with quote.ESC are
// never split candidates. A lone quote.NS always dequotes to one empty
// field; no quoted-null flag of the word is consulted here.
func (c *Config) splitFields(s []byte) []string {
	ifs := c.ifs
	if !c.ifsSet {
		ifs = " \t\n"
	}
	if ifs == "" {
		return []string{string(quote.Dequote(s))}
	}
	if isDefaultIFS(ifs) {
		return splitDefaultIFS(s)
	}
	return splitCustomIFS(s, ifs)
}

func isDefaultIFS(ifs string) bool { return ifs == " \t\n" }

// splitDefaultIFS handles the default-IFS case: runs of whitespace
// coalesce and no empty fields are ever produced.
func splitDefaultIFS(s []byte) []string {
	var fields []string
	var cur []byte
	flush := func() {
		if len(cur) > 0 {
			fields = append(fields, string(quote.Dequote(cur)))
			cur = nil
		}
	}
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == quote.ESC && i+1 < len(s) {
			cur = append(cur, b, s[i+1])
			i++
			continue
		}
		if isWS(b) {
			flush()
			continue
		}
		cur = append(cur, b)
	}
	flush()
	return fields
}

func isWS(b byte) bool { return b == ' ' || b == '\t' || b == '\n' }

// splitCustomIFS implements the non-default IFS classification: IFS
// whitespace characters bracket a field without producing an empty one,
// while an IFS non-whitespace character always delimits a field, even when
// adjacent to another delimiter or at the very end of the string — "a::b"
// with IFS=":" yields "a", "", "b", and "a:" yields "a", "".
func splitCustomIFS(s []byte, ifs string) []string {
	isIFSWS := func(b byte) bool { return isWS(b) && isIFSByte(b, ifs) }
	isIFSNonWS := func(b byte) bool { return !isWS(b) && isIFSByte(b, ifs) }

	var fields []string
	var cur []byte
	haveField := false
	// pendingEmpty is set right after an IFS non-whitespace delimiter (and
	// any IFS whitespace it absorbs); a non-whitespace delimiter always
	// separates two fields, so if nothing follows before EOF the trailing
	// field is empty rather than dropped, unlike a trailing run of IFS
	// whitespace.
	pendingEmpty := false
	flush := func() {
		fields = append(fields, string(quote.Dequote(cur)))
		cur = nil
		haveField = false
		pendingEmpty = false
	}

	i := 0
	n := len(s)
	// Skip leading IFS whitespace.
	for i < n && isIFSWS(s[i]) && s[i] != quote.ESC {
		i++
	}
	for i < n {
		b := s[i]
		if b == quote.ESC && i+1 < n {
			cur = append(cur, b, s[i+1])
			haveField = true
			pendingEmpty = false
			i += 2
			continue
		}
		switch {
		case isIFSNonWS(b):
			flush()
			i++
			// A run of IFS whitespace right after an IFS non-whitespace
			// delimiter is absorbed without producing another empty
			// field.
			for i < n && isIFSWS(s[i]) && s[i] != quote.ESC {
				i++
			}
			pendingEmpty = true
		case isIFSWS(b):
			flush()
			i++
			for i < n && isIFSWS(s[i]) && s[i] != quote.ESC {
				i++
			}
			// An IFS non-whitespace character right after the run is part
			// of the same delimiter, not the start of another one.
			if i < n && isIFSNonWS(s[i]) {
				i++
				for i < n && isIFSWS(s[i]) && s[i] != quote.ESC {
					i++
				}
				pendingEmpty = true
			}
		default:
			cur = append(cur, b)
			haveField = true
			pendingEmpty = false
			i++
		}
	}
	if haveField || len(cur) > 0 || pendingEmpty {
		flush()
	}
	return fields
}

func isIFSByte(b byte, ifs string) bool {
	for i := 0; i < len(ifs); i++ {
		if ifs[i] == b {
			return true
		}
	}
	return false
}

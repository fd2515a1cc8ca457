package expand

// assign.go implements pulling the leading run of Assignment-flagged
// words off a WordList into a side queue before the rest of the
// pipeline runs. Grounded on mvdan-sh's own variable-vs-command
// separation in interp/runner.go (where a CallExpr's Assigns are kept
// apart from its Args from the start, rather than recovered from a flat
// word list) — re-expressed here as a post-hoc split, since WordDesc
// carries no parser-level Assigns/Args distinction, only the per-word
// Assignment flag.

// SeparateAssignments pulls the leading run of Assignment-flagged words
// off words into an assignment queue. When keywordsInEnv is true (the
// shell's "keywords in the environment" mode), assignment words are
// harvested from the rest of the list too, not just the leading run —
// matching e.g. the VAR=val in `command VAR=val`.
//
// It returns the assignment queue and the remaining command words, in
// their original relative order.
func SeparateAssignments(words []*WordDesc, keywordsInEnv bool) (assigns, rest []*WordDesc) {
	i := 0
	for i < len(words) && words[i].Flags.Has(Assignment) {
		assigns = append(assigns, words[i])
		i++
	}
	if !keywordsInEnv {
		rest = words[i:]
		return assigns, rest
	}
	for _, w := range words[i:] {
		if w.Flags.Has(Assignment) {
			assigns = append(assigns, w)
		} else {
			rest = append(rest, w)
		}
	}
	return assigns, rest
}

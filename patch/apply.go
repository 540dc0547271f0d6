package patch

import (
	"slices"
	"sort"
	"strings"
)

// replacement is a resolved chunk: oldLen lines at start give way to lines.
type replacement struct {
	start  int
	oldLen int
	lines  []string
}

// computeReplacements resolves each chunk against orig, threading a cursor
// forward so chunks apply in file order. Context anchors move the cursor past
// the anchor line; matched blocks move it past the match. Pure insertions
// target the end of the file and leave the cursor alone, since they consume
// no original lines.
func computeReplacements(orig []string, path string, chunks []Chunk) ([]replacement, error) {
	reps := make([]replacement, 0, len(chunks))
	cursor := 0
	for _, c := range chunks {
		if c.Context != "" {
			idx, ok := seekSequence(orig, []string{c.Context}, cursor, false)
			if !ok {
				return nil, &ContextNotFoundError{Path: path, Context: c.Context}
			}
			cursor = idx + 1
		}

		if len(c.OldLines) == 0 {
			// Insert before the empty-string sentinel when the file ends in
			// a newline, so the new lines land inside the file rather than
			// after its final newline.
			at := len(orig)
			if len(orig) > 0 && orig[len(orig)-1] == "" {
				at--
			}
			reps = append(reps, replacement{start: at, lines: c.NewLines})
			continue
		}

		pattern, repl := c.OldLines, c.NewLines
		idx, ok := seekSequence(orig, pattern, cursor, c.EndOfFile)
		if !ok && pattern[len(pattern)-1] == "" {
			// A trailing blank in the pattern often stands for a final
			// newline the file does not actually have. Retry without it,
			// dropping the replacement's counterpart so the edit stays
			// balanced.
			pattern = pattern[:len(pattern)-1]
			if len(repl) > 0 && repl[len(repl)-1] == "" {
				repl = repl[:len(repl)-1]
			}
			idx, ok = seekSequence(orig, pattern, cursor, c.EndOfFile)
		}
		if !ok {
			return nil, &PatternNotFoundError{Path: path, Lines: c.OldLines}
		}
		reps = append(reps, replacement{start: idx, oldLen: len(pattern), lines: repl})
		cursor = idx + len(pattern)
	}

	// The forward cursor already yields ascending starts for well-formed
	// hunks. Sort anyway so applyReplacements never splices out of order;
	// stability keeps same-index insertions in chunk order.
	sort.SliceStable(reps, func(i, j int) bool { return reps[i].start < reps[j].start })
	return reps, nil
}

// applyReplacements splices reps, sorted ascending by start, into lines. It
// works from the highest index down so pending replacements keep valid
// coordinates, and never mutates its input.
func applyReplacements(lines []string, reps []replacement) []string {
	out := slices.Clone(lines)
	for i := len(reps) - 1; i >= 0; i-- {
		r := reps[i]
		out = splice(out, r.start, r.oldLen, r.lines)
	}
	return out
}

// splice returns a fresh slice equal to lines with del elements at start
// replaced by insert.
func splice(lines []string, start, del int, insert []string) []string {
	out := make([]string, 0, start+len(insert)+len(lines)-(start+del))
	out = append(out, lines[:start]...)
	out = append(out, insert...)
	out = append(out, lines[start+del:]...)
	return out
}

// transformContent applies chunks to content and returns the new content.
// Splitting on newlines leaves an empty-string sentinel when the content ends
// in a newline; exactly one such sentinel is dropped before matching, and the
// result always gains a final newline.
func transformContent(path, content string, chunks []Chunk) (string, error) {
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	reps, err := computeReplacements(lines, path, chunks)
	if err != nil {
		return "", err
	}
	out := applyReplacements(lines, reps)

	if len(out) == 0 || out[len(out)-1] != "" {
		out = append(out, "")
	}
	return strings.Join(out, "\n"), nil
}

package patch

import (
	"fmt"
	"strings"
)

// maxErrorExcerpt caps how much file text an error message may quote.
const maxErrorExcerpt = 200

// ContextNotFoundError reports a chunk anchor line that does not occur at or
// after the current search position.
type ContextNotFoundError struct {
	Path    string
	Context string
}

func (e *ContextNotFoundError) Error() string {
	return fmt.Sprintf("%s: context line %q not found", e.Path, excerpt(e.Context))
}

// PatternNotFoundError reports a chunk whose old lines could not be located
// in the file.
type PatternNotFoundError struct {
	Path  string
	Lines []string
}

func (e *PatternNotFoundError) Error() string {
	return fmt.Sprintf("%s: lines not found:\n%s", e.Path, excerpt(strings.Join(e.Lines, "\n")))
}

// excerpt shortens s so error messages stay readable when a chunk quotes a
// large block.
func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= maxErrorExcerpt {
		return s
	}
	return string(r[:maxErrorExcerpt-3]) + "..."
}

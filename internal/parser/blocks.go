package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"stitch/patch"
)

// ExtractEnvelopes returns every patch envelope in source, in order. Fenced
// code blocks are inspected first, since models usually wrap patches in one;
// when no fenced block carries an envelope, the raw text is scanned for bare
// Begin/End marker spans.
func ExtractEnvelopes(source string) []string {
	envelopes := fencedEnvelopes([]byte(source))
	if len(envelopes) == 0 {
		envelopes = bareEnvelopes(source)
	}
	return envelopes
}

// fencedEnvelopes walks the markdown AST and collects fenced code blocks that
// contain a patch envelope. The fence language is ignored: models label patch
// blocks as diff, patch, or nothing at all.
func fencedEnvelopes(source []byte) []string {
	var envelopes []string
	md := goldmark.DefaultParser()
	root := md.Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var content bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			content.Write(line.Value(source))
		}
		if body := content.String(); strings.Contains(body, patch.BeginMarker) {
			envelopes = append(envelopes, body)
		}
		return ast.WalkSkipChildren, nil
	}

	// The walker itself never fails.
	_ = ast.Walk(root, walker)

	return envelopes
}

// bareEnvelopes collects marker-delimited spans from plain, unfenced text. An
// unterminated span is kept so parsing can report the missing end marker.
func bareEnvelopes(source string) []string {
	var envelopes []string
	var current []string
	inside := false

	for _, line := range strings.Split(source, "\n") {
		switch {
		case !inside && strings.TrimSpace(line) == patch.BeginMarker:
			inside = true
			current = []string{line}
		case inside:
			current = append(current, line)
			if strings.TrimSpace(line) == patch.EndMarker {
				envelopes = append(envelopes, strings.Join(current, "\n"))
				inside = false
			}
		}
	}
	if inside {
		envelopes = append(envelopes, strings.Join(current, "\n"))
	}
	return envelopes
}

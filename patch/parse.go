package patch

import (
	"fmt"
	"strings"
)

// Markers of the patch envelope format. A patch starts with BeginMarker,
// ends with EndMarker, and lists file sections introduced by the directive
// prefixes between them.
const (
	BeginMarker = "*** Begin Patch"
	EndMarker   = "*** End Patch"

	addPrefix    = "*** Add File: "
	deletePrefix = "*** Delete File: "
	updatePrefix = "*** Update File: "
	movePrefix   = "*** Move to: "
	eofMarker    = "*** End of File"
)

// Parse reads a patch envelope and returns its hunks in order.
//
// An update section groups its body into chunks at "@@" headers; the text
// after "@@ " is the chunk's context anchor, kept verbatim. Body lines
// starting with ' ' (or entirely blank) belong to both sides of the chunk,
// '-' lines only to the old side, '+' lines only to the new side. Add
// sections carry the new file as '+' lines. Text before BeginMarker and
// after EndMarker is ignored, which tolerates the prose models wrap around
// patches.
func Parse(text string) ([]Hunk, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) != BeginMarker {
		i++
	}
	if i == len(lines) {
		return nil, fmt.Errorf("patch has no %q marker", BeginMarker)
	}
	i++

	var hunks []Hunk
	for {
		if i >= len(lines) {
			return nil, fmt.Errorf("patch has no %q marker", EndMarker)
		}
		line := lines[i]
		switch {
		case strings.TrimSpace(line) == EndMarker:
			return hunks, nil

		case strings.TrimSpace(line) == "":
			i++

		case strings.HasPrefix(line, addPrefix):
			path, err := sectionPath(line, addPrefix, i)
			if err != nil {
				return nil, err
			}
			contents, next, err := parseAddBody(lines, i+1)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, AddFile{Path: path, Contents: contents})
			i = next

		case strings.HasPrefix(line, deletePrefix):
			path, err := sectionPath(line, deletePrefix, i)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, DeleteFile{Path: path})
			i++

		case strings.HasPrefix(line, updatePrefix):
			hunk, next, err := parseUpdateSection(lines, i)
			if err != nil {
				return nil, err
			}
			hunks = append(hunks, hunk)
			i = next

		default:
			return nil, fmt.Errorf("line %d: unexpected content %q", i+1, line)
		}
	}
}

func sectionPath(line, prefix string, i int) (string, error) {
	path := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if path == "" {
		return "", fmt.Errorf("line %d: directive %q has no path", i+1, strings.TrimSpace(line))
	}
	return path, nil
}

// isDirective reports whether a raw line introduces a new envelope section.
// Only unprefixed lines count: file content that itself starts with "***"
// shows up prefixed by ' ', '+' or '-' inside a section body.
func isDirective(line string) bool {
	return strings.HasPrefix(line, "***")
}

func parseAddBody(lines []string, start int) (string, int, error) {
	var body []string
	i := start
	for i < len(lines) && !isDirective(lines[i]) {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "+"):
			body = append(body, line[1:])
		case line == "":
			body = append(body, "")
		default:
			return "", 0, fmt.Errorf("line %d: added lines must start with '+', got %q", i+1, line)
		}
		i++
	}
	if len(body) == 0 {
		return "", i, nil
	}
	return strings.Join(body, "\n") + "\n", i, nil
}

func parseUpdateSection(lines []string, start int) (UpdateFile, int, error) {
	hunk := UpdateFile{}
	path, err := sectionPath(lines[start], updatePrefix, start)
	if err != nil {
		return hunk, 0, err
	}
	hunk.Path = path

	i := start + 1
	if i < len(lines) && strings.HasPrefix(lines[i], movePrefix) {
		move, err := sectionPath(lines[i], movePrefix, i)
		if err != nil {
			return hunk, 0, err
		}
		hunk.MovePath = move
		i++
	}

	var cur *Chunk
	flush := func() {
		if cur != nil && (cur.Context != "" || len(cur.OldLines) > 0 || len(cur.NewLines) > 0 || cur.EndOfFile) {
			hunk.Chunks = append(hunk.Chunks, *cur)
		}
		cur = nil
	}

	for i < len(lines) {
		line := lines[i]

		if isDirective(line) {
			if strings.TrimSpace(line) != eofMarker {
				break
			}
			// Pin the chunk being built, or the one just finished, to the
			// end of the file.
			switch {
			case cur != nil:
				cur.EndOfFile = true
				flush()
			case len(hunk.Chunks) > 0:
				hunk.Chunks[len(hunk.Chunks)-1].EndOfFile = true
			default:
				return hunk, 0, fmt.Errorf("line %d: %q before any chunk", i+1, eofMarker)
			}
			i++
			continue
		}

		if strings.HasPrefix(line, "@@") {
			rest := line[2:]
			if rest != "" && !strings.HasPrefix(rest, " ") {
				return hunk, 0, fmt.Errorf("line %d: malformed chunk header %q", i+1, line)
			}
			flush()
			cur = &Chunk{Context: strings.TrimPrefix(rest, " ")}
			i++
			continue
		}

		if cur == nil {
			// Blank lines between sections and chunk headers are separator
			// noise, not one-line chunks.
			if line == "" {
				i++
				continue
			}
			cur = &Chunk{}
		}
		switch {
		case line == "":
			cur.OldLines = append(cur.OldLines, "")
			cur.NewLines = append(cur.NewLines, "")
		case line[0] == ' ':
			cur.OldLines = append(cur.OldLines, line[1:])
			cur.NewLines = append(cur.NewLines, line[1:])
		case line[0] == '-':
			cur.OldLines = append(cur.OldLines, line[1:])
		case line[0] == '+':
			cur.NewLines = append(cur.NewLines, line[1:])
		default:
			return hunk, 0, fmt.Errorf("line %d: unexpected line %q in update of %s", i+1, line, hunk.Path)
		}
		i++
	}

	flush()
	if len(hunk.Chunks) == 0 {
		return hunk, 0, fmt.Errorf("update of %s has no chunks", hunk.Path)
	}
	return hunk, i, nil
}

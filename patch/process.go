package patch

import "fmt"

// FileReader supplies the current content of the file at path. The engine
// does no IO of its own; callers plug in whatever store the patch applies
// against. A read error is handed back to the caller unchanged.
type FileReader func(path string) (string, error)

// ProcessHunk computes the FileChange a single hunk implies. Add hunks never
// read; delete and update hunks read the target once through read. Update
// changes keep the original content alongside the result so callers can
// journal or revert them.
func ProcessHunk(h Hunk, read FileReader) (FileChange, error) {
	switch h := h.(type) {
	case AddFile:
		return AddChange{Path: h.Path, Content: h.Contents}, nil
	case DeleteFile:
		original, err := read(h.Path)
		if err != nil {
			return nil, err
		}
		return DeleteChange{Path: h.Path, Original: original}, nil
	case UpdateFile:
		original, err := read(h.Path)
		if err != nil {
			return nil, err
		}
		content, err := transformContent(h.Path, original, h.Chunks)
		if err != nil {
			return nil, err
		}
		return UpdateChange{
			Path:     h.Path,
			MovePath: h.MovePath,
			Original: original,
			Content:  content,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hunk type %T", h)
	}
}

// Process runs ProcessHunk over hunks in order and collects the results. The
// first failure aborts the whole batch: no changes are returned and the
// remaining hunks are never read. Nothing is written back between hunks, so
// two hunks naming the same file both see the content the reader serves, not
// each other's output.
func Process(hunks []Hunk, read FileReader) ([]FileChange, error) {
	changes := make([]FileChange, 0, len(hunks))
	for _, h := range hunks {
		change, err := ProcessHunk(h, read)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

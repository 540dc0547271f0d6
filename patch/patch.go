// Package patch applies context-anchored line edits to file content.
//
// A patch is a list of hunks. Each hunk targets one file and either creates
// it, deletes it, or updates it with one or more chunks. A chunk locates a
// block of existing lines, optionally after a single context anchor line, and
// replaces it with new lines. The engine never touches the filesystem: file
// content is pulled through a caller-supplied FileReader and results come
// back as FileChange values for the caller to persist.
package patch

// Chunk is a single localized edit inside an update hunk.
type Chunk struct {
	// Context is a line that must appear before the edit site. It narrows
	// the search for OldLines. Empty means no anchor.
	Context string
	// OldLines is the block to find and replace. Empty means a pure
	// insertion at the end of the file.
	OldLines []string
	// NewLines replaces OldLines.
	NewLines []string
	// EndOfFile pins the OldLines match to the end of the file.
	EndOfFile bool
}

// Hunk is one file-level operation of a patch. It is a closed set: AddFile,
// DeleteFile and UpdateFile are the only implementations.
type Hunk interface {
	// TargetPath reports the path the hunk operates on.
	TargetPath() string

	isHunk()
}

// AddFile creates a file with the given contents.
type AddFile struct {
	Path     string
	Contents string
}

// DeleteFile removes a file.
type DeleteFile struct {
	Path string
}

// UpdateFile edits a file in place, optionally renaming it to MovePath.
// Chunks must be listed in the order they occur in the file.
type UpdateFile struct {
	Path     string
	MovePath string
	Chunks   []Chunk
}

func (h AddFile) TargetPath() string    { return h.Path }
func (h DeleteFile) TargetPath() string { return h.Path }
func (h UpdateFile) TargetPath() string { return h.Path }

func (AddFile) isHunk()    {}
func (DeleteFile) isHunk() {}
func (UpdateFile) isHunk() {}

// FileChange is the outcome of processing one hunk. Like Hunk it is a closed
// set: AddChange, DeleteChange and UpdateChange.
type FileChange interface {
	TargetPath() string

	isFileChange()
}

// AddChange carries the full content of a file to create.
type AddChange struct {
	Path    string
	Content string
}

// DeleteChange records a file removal. Original retains the content that was
// removed so callers can journal or undo the change.
type DeleteChange struct {
	Path     string
	Original string
}

// UpdateChange carries a file's content before and after an update. A
// non-empty MovePath is the path the result should live at instead of Path.
type UpdateChange struct {
	Path     string
	MovePath string
	Original string
	Content  string
}

func (c AddChange) TargetPath() string    { return c.Path }
func (c DeleteChange) TargetPath() string { return c.Path }
func (c UpdateChange) TargetPath() string { return c.Path }

func (AddChange) isFileChange()    {}
func (DeleteChange) isFileChange() {}
func (UpdateChange) isFileChange() {}

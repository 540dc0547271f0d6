package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"stitch/internal/ui"
	"stitch/model"
	"stitch/patch"
)

// Actions a change can perform, as recorded in plans and the journal.
const (
	ActionCreate = "create"
	ActionModify = "modify"
	ActionDelete = "delete"
	ActionRename = "rename"
)

// PathResolver finds absolute paths for the relative paths patches use.
type PathResolver struct {
	lookupDirs []string
}

// NewPathResolver creates a new PathResolver. Without lookup directories it
// resolves against the current working directory.
func NewPathResolver(lookupDirs []string) *PathResolver {
	if len(lookupDirs) == 0 {
		wd, err := os.Getwd()
		if err != nil {
			// This is unlikely to fail, but if it does, it's a critical error.
			panic(fmt.Sprintf("could not get current working directory: %v", err))
		}
		return &PathResolver{lookupDirs: []string{wd}}
	}

	absDirs := make([]string, 0, len(lookupDirs))
	for _, dir := range lookupDirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			ui.Warning("Invalid lookup directory '%s', ignoring: %v", dir, err)
			continue
		}
		absDirs = append(absDirs, abs)
	}
	if len(absDirs) == 0 {
		return NewPathResolver(nil)
	}
	return &PathResolver{lookupDirs: absDirs}
}

// Resolve finds an absolute path, assuming a new file in the first lookup
// directory if it doesn't exist anywhere.
func (r *PathResolver) Resolve(relativePath string) string {
	if existing := r.ResolveExisting(relativePath); existing != "" {
		return existing
	}
	return filepath.Join(r.lookupDirs[0], relativePath)
}

// ResolveExisting finds an absolute path only if the file exists.
func (r *PathResolver) ResolveExisting(relativePath string) string {
	for _, dir := range r.lookupDirs {
		absPath := filepath.Join(dir, relativePath)
		if _, err := os.Stat(absPath); err == nil {
			return absPath
		}
	}
	return ""
}

// ReadFile returns the content of the file at path. The error comes back
// exactly as the OS reported it, so callers see the original not-found
// condition. The signature matches patch.FileReader.
func ReadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// Materialize writes a single computed change to disk. Renames write the new
// content at the target path before removing the old file, so a failure
// cannot lose the file.
func Materialize(change patch.FileChange) error {
	switch c := change.(type) {
	case patch.AddChange:
		if err := ensureParentDir(c.Path); err != nil {
			return err
		}
		return os.WriteFile(c.Path, []byte(c.Content), 0644)
	case patch.DeleteChange:
		return os.Remove(c.Path)
	case patch.UpdateChange:
		target := c.Path
		if c.MovePath != "" {
			target = c.MovePath
			if err := ensureParentDir(target); err != nil {
				return err
			}
		}
		if err := os.WriteFile(target, []byte(c.Content), 0644); err != nil {
			return err
		}
		if target != c.Path {
			return os.Remove(c.Path)
		}
		return nil
	default:
		return fmt.Errorf("unsupported change type %T", change)
	}
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// Applier writes computed changes straight to the filesystem. It is the
// default backend when no editor integration is requested.
type Applier struct{}

func NewApplier() *Applier {
	return &Applier{}
}

// ApplyChanges materializes each change in order and reports which ones
// landed. A failed change does not stop the rest.
func (a *Applier) ApplyChanges(changes []patch.FileChange, progress func(done int)) ([]patch.FileChange, []model.FailedFile) {
	var applied []patch.FileChange
	var failed []model.FailedFile
	for i, change := range changes {
		if err := Materialize(change); err != nil {
			failed = append(failed, model.FailedFile{Path: change.TargetPath(), Reason: err.Error()})
		} else {
			applied = append(applied, change)
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return applied, failed
}

// Save is a no-op: disk writes are already durable.
func (a *Applier) Save() error { return nil }

// Close is a no-op.
func (a *Applier) Close() {}

// ClassifyChanges reports the action each change performs, keyed by target
// path, and the directories that must exist before the changes are written.
func ClassifyChanges(changes []patch.FileChange) (map[string]string, map[string]struct{}) {
	actions := make(map[string]string)
	dirs := make(map[string]struct{})

	for _, change := range changes {
		switch c := change.(type) {
		case patch.AddChange:
			if _, err := os.Stat(c.Path); os.IsNotExist(err) {
				actions[c.Path] = ActionCreate
			} else {
				actions[c.Path] = ActionModify
			}
			markMissingDir(dirs, c.Path)
		case patch.DeleteChange:
			actions[c.Path] = ActionDelete
		case patch.UpdateChange:
			if c.MovePath != "" && c.MovePath != c.Path {
				actions[c.Path] = ActionRename
				markMissingDir(dirs, c.MovePath)
			} else {
				actions[c.Path] = ActionModify
			}
		}
	}
	return actions, dirs
}

func markMissingDir(dirs map[string]struct{}, path string) {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		dirs[dir] = struct{}{}
	}
}

// CreateDirs makes every directory in dirs, parents included.
func CreateDirs(dirs map[string]struct{}) error {
	if len(dirs) == 0 {
		return nil
	}
	sortedDirs := make([]string, 0, len(dirs))
	for dir := range dirs {
		sortedDirs = append(sortedDirs, dir)
	}
	sort.Strings(sortedDirs)

	for _, dir := range sortedDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// RemoveEmptyParents removes the parent directories of path while they stay
// empty, walking upward until stop. Errors stop the walk silently; leftover
// directories are harmless.
func RemoveEmptyParents(path, stop string) {
	dir := filepath.Dir(path)
	for dir != stop && dir != "." && dir != "/" {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// GetFileSHA256 returns the hex SHA-256 of the file at path.
func GetFileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumSHA256 returns the hex SHA-256 of content.
func SumSHA256(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

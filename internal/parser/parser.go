package parser

import (
	"path/filepath"

	"stitch/internal/fs"
	"stitch/internal/ui"
	"stitch/model"
	"stitch/patch"
)

// ExecutionPlan contains the computed changes and the setup they need.
type ExecutionPlan struct {
	Changes      []patch.FileChange
	FileActions  map[string]string // Maps absolute path to create/modify/delete/rename.
	DirsToCreate map[string]struct{}
	Failed       []model.FailedFile
}

// CreatePlan extracts patch envelopes from content, resolves their paths and
// processes every hunk into a concrete change. A hunk that cannot be applied
// does not abort the others; it lands in the plan's Failed list so the run
// can report it alongside the applied files.
func CreatePlan(content string, resolver *fs.PathResolver, extensions []string) *ExecutionPlan {
	envelopes := ExtractEnvelopes(content)
	if len(envelopes) == 0 {
		ui.Warning("No patch blocks found in the input.")
	}

	var hunks []patch.Hunk
	for _, envelope := range envelopes {
		parsed, err := patch.Parse(envelope)
		if err != nil {
			ui.Warning("Skipping malformed patch block: %v", err)
			continue
		}
		hunks = append(hunks, parsed...)
	}

	plan := &ExecutionPlan{}
	for _, hunk := range hunks {
		if !hasAllowedExtension(hunk.TargetPath(), extensions) {
			continue
		}
		change, err := patch.ProcessHunk(resolveHunkPaths(hunk, resolver), fs.ReadFile)
		if err != nil {
			plan.Failed = append(plan.Failed, model.FailedFile{Path: hunk.TargetPath(), Reason: err.Error()})
			continue
		}
		plan.Changes = append(plan.Changes, demoteOverwrite(change))
	}

	plan.FileActions, plan.DirsToCreate = fs.ClassifyChanges(plan.Changes)
	return plan
}

// demoteOverwrite turns an add targeting an existing file into an update
// carrying the current content. The journal then holds a before image, so
// undoing the run restores the overwritten file instead of deleting it.
func demoteOverwrite(change patch.FileChange) patch.FileChange {
	add, ok := change.(patch.AddChange)
	if !ok {
		return change
	}
	original, err := fs.ReadFile(add.Path)
	if err != nil {
		return change
	}
	return patch.UpdateChange{Path: add.Path, Original: original, Content: add.Content}
}

// resolveHunkPaths rewrites a hunk's patch-relative paths to absolute ones,
// so the engine reads the right files and every consumer downstream works on
// real locations.
func resolveHunkPaths(hunk patch.Hunk, resolver *fs.PathResolver) patch.Hunk {
	switch h := hunk.(type) {
	case patch.AddFile:
		h.Path = resolver.Resolve(h.Path)
		return h
	case patch.DeleteFile:
		h.Path = resolver.Resolve(h.Path)
		return h
	case patch.UpdateFile:
		h.Path = resolver.Resolve(h.Path)
		if h.MovePath != "" {
			h.MovePath = resolver.Resolve(h.MovePath)
		}
		return h
	default:
		return hunk
	}
}

func hasAllowedExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, allowedExt := range extensions {
		if ext == allowedExt {
			return true
		}
	}
	return false
}

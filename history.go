package stitch

import (
	"fmt"
	"os"
	"path/filepath"

	"stitch/internal/fs"
	"stitch/internal/state"
	"stitch/model"
	"stitch/patch"
)

// undoLastOperation rolls the working tree back to the state before the most
// recent journaled run.
func (a *App) undoLastOperation() (model.Summary, error) {
	ops := a.stateManager.OpsToUndo()
	if len(ops) == 0 {
		return model.Summary{Message: "No operation to undo."}, nil
	}

	total := len(ops)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	var undone, failed []string
	// Walk backwards so chained edits to the same path unwind in order.
	for i := total - 1; i >= 0; i-- {
		op := ops[i]
		if err := a.revertOp(op); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", op.Path, err))
		} else {
			undone = append(undone, op.Path)
		}
		if a.progressCallback != nil {
			a.progressCallback(total-i, total)
		}
	}

	summary := model.Summary{
		Modified: undone,
		Failed:   failed,
		Message:  "Undid last operation.",
	}
	relativizeSummaryPaths(&summary)
	return summary, nil
}

// redoLastOperation re-applies the most recently undone run.
func (a *App) redoLastOperation() (model.Summary, error) {
	ops := a.stateManager.OpsToRedo()
	if len(ops) == 0 {
		return model.Summary{Message: "No operation to redo."}, nil
	}

	total := len(ops)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	var redone, failed []string
	for i, op := range ops {
		if err := a.reapplyOp(op); err != nil {
			failed = append(failed, fmt.Sprintf("%s: %v", op.Path, err))
		} else {
			redone = append(redone, op.Path)
		}
		if a.progressCallback != nil {
			a.progressCallback(i+1, total)
		}
	}

	summary := model.Summary{
		Modified: redone,
		Failed:   failed,
		Message:  "Redid last undone operation.",
	}
	relativizeSummaryPaths(&summary)
	return summary, nil
}

// revertOp restores the state a single journaled operation replaced.
func (a *App) revertOp(op state.Op) error {
	switch op.Action {
	case fs.ActionCreate:
		if err := a.verifyThenRemove(op.Path, op.AfterHash); err != nil {
			return err
		}
		fs.RemoveEmptyParents(op.Path, a.journalRoot())
		return nil
	case fs.ActionModify:
		return a.restoreContent(op.Path, op.AfterHash, op.BeforeHash)
	case fs.ActionDelete:
		return a.restoreMissing(op.Path, op.BeforeHash)
	case fs.ActionRename:
		if err := a.restoreMissing(op.Path, op.BeforeHash); err != nil {
			return err
		}
		if err := a.verifyThenRemove(op.MovePath, op.AfterHash); err != nil {
			return err
		}
		fs.RemoveEmptyParents(op.MovePath, a.journalRoot())
		return nil
	}
	return fmt.Errorf("unknown journal action %q", op.Action)
}

// reapplyOp performs a single journaled operation again.
func (a *App) reapplyOp(op state.Op) error {
	switch op.Action {
	case fs.ActionCreate:
		return a.restoreMissing(op.Path, op.AfterHash)
	case fs.ActionModify:
		return a.restoreContent(op.Path, op.BeforeHash, op.AfterHash)
	case fs.ActionDelete:
		if err := a.verifyThenRemove(op.Path, op.BeforeHash); err != nil {
			return err
		}
		fs.RemoveEmptyParents(op.Path, a.journalRoot())
		return nil
	case fs.ActionRename:
		if err := a.restoreMissing(op.MovePath, op.AfterHash); err != nil {
			return err
		}
		if err := a.verifyThenRemove(op.Path, op.BeforeHash); err != nil {
			return err
		}
		fs.RemoveEmptyParents(op.Path, a.journalRoot())
		return nil
	}
	return fmt.Errorf("unknown journal action %q", op.Action)
}

// restoreContent rewrites path from the blob store, but only if the file on
// disk still matches the hash the journal expects.
func (a *App) restoreContent(path, expectHash, blobHash string) error {
	current, err := fs.GetFileSHA256(path)
	if err != nil {
		return err
	}
	if current != expectHash {
		return fmt.Errorf("file changed since the recorded run; refusing to overwrite")
	}
	content, err := a.stateManager.ReadBlob(blobHash)
	if err != nil {
		return err
	}
	return fs.Materialize(patch.AddChange{Path: path, Content: content})
}

// restoreMissing recreates a file that the journal says should not currently
// exist. A file already carrying the target content is left alone.
func (a *App) restoreMissing(path, blobHash string) error {
	if current, err := fs.GetFileSHA256(path); err == nil {
		if current == blobHash {
			return nil
		}
		return fmt.Errorf("an unrelated file sits at this path; refusing to overwrite")
	} else if !os.IsNotExist(err) {
		return err
	}
	content, err := a.stateManager.ReadBlob(blobHash)
	if err != nil {
		return err
	}
	return fs.Materialize(patch.AddChange{Path: path, Content: content})
}

// verifyThenRemove deletes path after checking it still matches the hash
// the journal recorded. A path that is already gone counts as done.
func (a *App) verifyThenRemove(path, expectHash string) error {
	current, err := fs.GetFileSHA256(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if current != expectHash {
		return fmt.Errorf("file changed since the recorded run; refusing to remove")
	}
	return os.Remove(path)
}

// journalRoot is the directory the state journal lives under. Empty parent
// cleanup never climbs past it.
func (a *App) journalRoot() string {
	return filepath.Dir(a.stateManager.StateDir)
}

// Package stitch turns patch blocks from model output into applied file
// changes, with a journal for undoing and redoing whole runs.
package stitch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"stitch/cli"
	"stitch/internal/fs"
	"stitch/internal/nvim"
	"stitch/internal/parser"
	"stitch/internal/source"
	"stitch/internal/state"
	"stitch/internal/ui"
	"stitch/model"
	"stitch/patch"
)

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// applier persists computed changes somewhere: the filesystem or an editor.
type applier interface {
	ApplyChanges(changes []patch.FileChange, progress func(int)) ([]patch.FileChange, []model.FailedFile)
	Save() error
	Close()
}

// App orchestrates the entire application logic.
type App struct {
	cfg              *cli.Config
	stateManager     *state.Manager
	pathResolver     *fs.PathResolver
	sourceProvider   *source.Provider
	progressCallback ProgressUpdate
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	stateManager, err := state.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}

	return &App{
		cfg:            cfg,
		stateManager:   stateManager,
		pathResolver:   fs.NewPathResolver(cfg.LookupDirs),
		sourceProvider: source.New(),
	}, nil
}

// SetProgressCallback sets a function to be called for progress updates.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// Execute runs the operation the flags ask for.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.undoLastOperation()
	case a.cfg.Redo:
		return a.redoLastOperation()
	default:
		return a.processContent()
	}
}

// processContent pulls the patch text from its source and applies it.
func (a *App) processContent() (model.Summary, error) {
	content, err := a.sourceProvider.GetContent(a.cfg.InputFile)
	if err != nil {
		return model.Summary{}, err
	}
	return a.processAndApply(content)
}

// processAndApply plans the changes content describes and applies them.
func (a *App) processAndApply(content string) (model.Summary, error) {
	if strings.TrimSpace(content) == "" {
		return model.Summary{Message: "Source is empty. Nothing to apply."}, nil
	}

	plan := parser.CreatePlan(content, a.pathResolver, a.cfg.Extensions)
	if len(plan.Changes) == 0 && len(plan.Failed) == 0 {
		return model.Summary{Message: "No applicable changes were found. Nothing to do."}, nil
	}

	return a.applyPlan(plan)
}

// applyPlan materializes a plan through the configured backend, journals the
// applied changes and assembles the run summary.
func (a *App) applyPlan(plan *parser.ExecutionPlan) (model.Summary, error) {
	summary := model.Summary{}
	for _, f := range plan.Failed {
		summary.Failed = append(summary.Failed, fmt.Sprintf("%s: %s", f.Path, f.Reason))
	}

	if a.cfg.DryRun {
		fillSummary(&summary, plan.Changes, plan.FileActions)
		summary.Message = "Dry run: no files were written."
		relativizeSummaryPaths(&summary)
		return summary, nil
	}

	if len(plan.Changes) == 0 {
		relativizeSummaryPaths(&summary)
		return summary, nil
	}

	if err := fs.CreateDirs(plan.DirsToCreate); err != nil {
		return model.Summary{}, err
	}

	backend, err := a.newApplier()
	if err != nil {
		return model.Summary{}, err
	}
	defer backend.Close()

	total := len(plan.Changes)
	var progressCb func(int)
	if a.progressCallback != nil {
		a.progressCallback(0, total)
		progressCb = func(current int) {
			a.progressCallback(current, total)
		}
	}

	applied, failed := backend.ApplyChanges(plan.Changes, progressCb)
	for _, f := range failed {
		summary.Failed = append(summary.Failed, fmt.Sprintf("%s: %s", f.Path, f.Reason))
	}

	if len(applied) > 0 {
		switch {
		case a.cfg.Buffer:
			summary.Message = "Buffers updated but left unsaved."
		default:
			if err := backend.Save(); err != nil {
				summary.Message = fmt.Sprintf("Changes applied but not saved: %v", err)
				break
			}
			if err := a.stateManager.Record(applied); err != nil {
				ui.Warning("Failed to journal this run; undo will not cover it: %v", err)
			}
		}
	}

	fillSummary(&summary, applied, plan.FileActions)
	relativizeSummaryPaths(&summary)
	return summary, nil
}

// newApplier picks the backend for this run.
func (a *App) newApplier() (applier, error) {
	if a.cfg.Nvim {
		manager, err := nvim.New(a.cfg.NvimAddress)
		if err != nil {
			return nil, err
		}
		return manager, nil
	}
	return fs.NewApplier(), nil
}

// fillSummary sorts changes into the summary buckets using the plan's
// action classification.
func fillSummary(summary *model.Summary, changes []patch.FileChange, actions map[string]string) {
	for _, change := range changes {
		path := change.TargetPath()
		switch actions[path] {
		case fs.ActionCreate:
			summary.Created = append(summary.Created, path)
		case fs.ActionDelete:
			summary.Deleted = append(summary.Deleted, path)
		case fs.ActionRename:
			if upd, ok := change.(patch.UpdateChange); ok {
				summary.Renamed = append(summary.Renamed, path+" -> "+upd.MovePath)
			}
		default:
			summary.Modified = append(summary.Modified, path)
		}
	}
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display.
func relativizeSummaryPaths(summary *model.Summary) {
	wd, err := os.Getwd()
	if err != nil {
		return
	}

	rel := func(path string) string {
		r, err := filepath.Rel(wd, path)
		if err != nil {
			return path
		}
		return r
	}
	relAll := func(paths []string) {
		for i, p := range paths {
			paths[i] = rel(p)
		}
	}

	relAll(summary.Created)
	relAll(summary.Modified)
	relAll(summary.Deleted)
	for i, r := range summary.Renamed {
		if from, to, ok := strings.Cut(r, " -> "); ok {
			summary.Renamed[i] = rel(from) + " -> " + rel(to)
		}
	}
}

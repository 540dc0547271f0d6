package stitch

import (
	"fmt"

	"stitch/cli"
)

// Options for using stitch as a library.
type Options struct {
	// Plan and report changes without writing anything.
	DryRun bool
	// Directories to resolve relative patch paths against.
	LookupDirs []string
	// Filter by extension (e.g. 'go', 'py'). Empty means no filter.
	Extensions []string
}

// Apply parses the given content string and applies the changes to files.
// It returns a summary of the operations in a map.
func Apply(content string, opts Options) (map[string][]string, error) {
	cliCfg := &cli.Config{
		DryRun:     opts.DryRun,
		LookupDirs: opts.LookupDirs,
		Extensions: opts.Extensions,
	}

	app, err := New(cliCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stitch app: %w", err)
	}

	summary, err := app.processAndApply(content)
	if err != nil {
		return nil, err
	}

	result := map[string][]string{
		"Created":  summary.Created,
		"Modified": summary.Modified,
		"Deleted":  summary.Deleted,
		"Renamed":  summary.Renamed,
		"Failed":   summary.Failed,
	}

	return result, nil
}

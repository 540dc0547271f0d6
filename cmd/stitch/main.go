package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"stitch"
	"stitch/cli"
	"stitch/internal/tui"
	"stitch/internal/ui"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := stitch.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns stdout, so it only runs for interactive sessions. Piped
	// output gets the plain printer and keeps the file lists parseable.
	interactive := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if cfg.NoAnimation || !interactive {
		os.Exit(runPlain(app))
	}
	os.Exit(runTUI(app, cfg))
}

func runTUI(app *stitch.App, cfg *cli.Config) int {
	model := tui.New(app, cfg)
	p := tea.NewProgram(model)
	model.SetProgram(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	if model.Err() != nil {
		return 1
	}
	return 0
}

func runPlain(app *stitch.App) int {
	var bar *ui.ProgressBar
	app.SetProgressCallback(func(current, total int) {
		if bar == nil {
			bar = ui.NewProgressBar(total, "Applying")
			bar.Start()
		}
		bar.Set(current)
	})

	summary, err := app.Execute()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		ui.Error("%v", err)
		var detailed *stitch.DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		return 1
	}

	ui.PrintSummary(summary)
	return 0
}

package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"stitch/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

// PrintSummary writes a run summary. Headers and counts go to stderr; the
// plain file lists go to stdout so they stay pipeable.
func PrintSummary(s model.Summary) {
	Header("\n--- Patch Summary ---")
	if s.Message != "" {
		Info(s.Message)
	}
	if s.Empty() {
		if s.Message == "" {
			Info("No files were changed.")
		}
		return
	}

	listFiles(SuccessColor, fmt.Sprintf("Created %d file(s):", len(s.Created)), s.Created)
	listFiles(SuccessColor, fmt.Sprintf("Modified %d file(s):", len(s.Modified)), s.Modified)
	listFiles(SuccessColor, fmt.Sprintf("Deleted %d file(s):", len(s.Deleted)), s.Deleted)
	listFiles(SuccessColor, fmt.Sprintf("Renamed %d file(s):", len(s.Renamed)), s.Renamed)
	listFiles(ErrorColor, fmt.Sprintf("Failed to apply %d file(s):", len(s.Failed)), s.Failed)
}

func listFiles(c *color.Color, header string, files []string) {
	if len(files) == 0 {
		return
	}
	c.Fprintf(os.Stderr, "%s\n", header)
	for _, f := range files {
		fmt.Printf("  - %s\n", f)
	}
}

// --- Progress Bar ---

// ProgressBar is the plain-terminal progress display used when the
// interactive TUI is disabled.
type ProgressBar struct {
	total   int
	prefix  string
	current int
}

func NewProgressBar(total int, prefix string) *ProgressBar {
	return &ProgressBar{total: total, prefix: prefix}
}

func (p *ProgressBar) Start() {
	p.draw()
}

func (p *ProgressBar) Set(current int) {
	p.current = current
	p.draw()
}

func (p *ProgressBar) Finish() {
	fmt.Fprintln(os.Stderr)
}

func (p *ProgressBar) draw() {
	if p.total == 0 {
		return
	}
	const barLength = 40
	percent := float64(p.current) / float64(p.total)
	filledLength := int(percent * barLength)
	bar := strings.Repeat("█", filledLength) + strings.Repeat("-", barLength-filledLength)

	countStr := fmt.Sprintf("[%d/%d]", p.current, p.total)
	fmt.Fprintf(os.Stderr, "\r%s |%s| %s %.1f%%", p.prefix, bar, countStr, percent*100)
}

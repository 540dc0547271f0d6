package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"stitch/internal/config"
)

// Config holds the effective options for one run, after folding file config
// values into the command-line flags.
type Config struct {
	Nvim        bool
	Buffer      bool
	DryRun      bool
	Undo        bool
	Redo        bool
	NoAnimation bool
	LookupDirs  []string
	Extensions  []string
	NvimAddress string
	ConfigPath  string
	InputFile   string
}

// ParseFlags defines and parses command-line flags using pflag, then applies
// config-file values for every flag the user left untouched.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	pflag.BoolVarP(&cfg.Nvim, "nvim", "n", false, "Apply changes through Neovim buffers instead of writing files directly.")
	pflag.BoolVarP(&cfg.Buffer, "buffer", "b", false, "With --nvim, leave the updated buffers unsaved (implies --nvim).")
	pflag.BoolVarP(&cfg.DryRun, "dry-run", "d", false, "Report what would change without writing anything.")
	pflag.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the spinner and progress display.")
	pflag.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", nil, "Additional directory to resolve patch paths against; may be repeated.")
	pflag.StringSliceVarP(&cfg.Extensions, "extension", "e", nil, "Only apply hunks whose files match these extensions (e.g. 'go', 'py').")
	pflag.StringVar(&cfg.NvimAddress, "nvim-address", "", "Neovim listen address (defaults to $NVIM_LISTEN_ADDRESS).")
	pflag.StringVarP(&cfg.ConfigPath, "config", "c", "", "Path to the config file.")

	// Mutually exclusive history group
	pflag.BoolVarP(&cfg.Undo, "undo", "u", false, "Undo the last applied patch.")
	pflag.BoolVarP(&cfg.Redo, "redo", "r", false, "Redo the last undone patch.")

	pflag.Usage = func() {
		fmt.Println("Usage: stitch [flags] [file]")
		fmt.Println("\nApply patch blocks from a file, stdin (pipe) or the clipboard to the working tree.")
		fmt.Println("\nExample: pbpaste | stitch -e go")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if cfg.Undo && cfg.Redo {
		return nil, fmt.Errorf("error: --undo and --redo are mutually exclusive")
	}

	file, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	applyFileConfig(cfg, file)

	if cfg.Buffer {
		cfg.Nvim = true
	}
	cfg.InputFile = pflag.Arg(0)
	normalizeExtensions(cfg.Extensions)
	for i, dir := range cfg.LookupDirs {
		cfg.LookupDirs[i] = expandHome(dir)
	}

	return cfg, nil
}

// applyFileConfig fills in config-file values for flags the user did not set
// on the command line.
func applyFileConfig(cfg *Config, file *config.File) {
	flags := pflag.CommandLine
	if !flags.Changed("lookup-dir") && len(file.LookupDirs) > 0 {
		cfg.LookupDirs = file.LookupDirs
	}
	if !flags.Changed("extension") && len(file.Extensions) > 0 {
		cfg.Extensions = file.Extensions
	}
	if !flags.Changed("no-animation") && file.NoAnimation {
		cfg.NoAnimation = true
	}
	if !flags.Changed("nvim") && file.Nvim {
		cfg.Nvim = true
	}
	if !flags.Changed("nvim-address") && file.NvimAddress != "" {
		cfg.NvimAddress = file.NvimAddress
	}
}

// normalizeExtensions makes sure every extension filter carries its dot, so
// 'py' and '.py' mean the same thing.
func normalizeExtensions(exts []string) {
	for i, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext != "" && ext[0] != '.' {
			ext = "." + ext
		}
		exts[i] = ext
	}
}

// expandHome resolves a leading ~ in a path, since config files tend to use
// it for lookup directories.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + path[1:]
		}
	}
	return path
}

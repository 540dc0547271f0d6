package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"stitch/internal/ui"
)

const (
	appName        = "stitch"
	configFileName = "config.toml"
)

// File is the optional on-disk configuration. Zero values mean "not set";
// command-line flags always win over file values.
type File struct {
	LookupDirs  []string `toml:"lookup_dirs"`
	Extensions  []string `toml:"extensions"`
	NoAnimation bool     `toml:"no_animation"`
	Nvim        bool     `toml:"nvim"`
	NvimAddress string   `toml:"nvim_address"`
}

// DefaultPath returns the conventional config file location, typically
// ~/.config/stitch/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Load reads the config file at path, or at DefaultPath when path is empty.
// A missing file at the default location is not an error; it yields an empty
// File. A missing file the user named explicitly is.
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		defaultPath, err := DefaultPath()
		if err != nil {
			return &File{}, nil
		}
		path = defaultPath
	}

	var file File
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		ui.Warning("Ignoring unknown keys in %s: %v", path, undecoded)
	}
	return &file, nil
}

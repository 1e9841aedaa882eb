package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Loaded is the effective configuration and where it came from. Exists is
// false when voxboard is running on built-in defaults.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the config at explicitPath, or at the XDG location when empty.
// A missing file is not an error: defaults apply and the warnings say so.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path}

	content, err := readConfigFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		loaded.Config = Default()
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using built-in defaults", path),
		})
		defaultWarnings, err := Validate(loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("built-in defaults: %w", err)
		}
		loaded.Warnings = append(loaded.Warnings, defaultWarnings...)
		return loaded, nil
	case err != nil:
		return Loaded{}, err
	}

	cfg, warnings, err := Parse(content, Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	loaded.Config = cfg
	loaded.Warnings = warnings
	loaded.Exists = true
	return loaded, nil
}

func readConfigFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		return "", fmt.Errorf("stat config %q: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("config path %q is a directory", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read config %q: %w", path, err)
	}
	return string(content), nil
}

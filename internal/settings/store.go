// Package settings persists accessibility preferences and interprets spoken
// settings commands.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Values are the persisted preferences.
type Values struct {
	VibrationEnabled   bool    `json:"vibration_enabled"`
	VibrationIntensity float64 `json:"vibration_intensity"`
	// VoiceIndex is zero-based; -1 means the synthesizer default.
	VoiceIndex int     `json:"voice_index"`
	SpeechRate float64 `json:"speech_rate"`
}

// Defaults returns the values used before anything is saved.
func Defaults() Values {
	return Values{
		VibrationEnabled:   true,
		VibrationIntensity: 1,
		VoiceIndex:         -1,
		SpeechRate:         1,
	}
}

// Sanitize replaces out-of-range values with defaults.
func (v Values) Sanitize() Values {
	defaults := Defaults()
	if math.IsNaN(v.VibrationIntensity) || v.VibrationIntensity < 0.5 || v.VibrationIntensity > 2 {
		v.VibrationIntensity = defaults.VibrationIntensity
	}
	if math.IsNaN(v.SpeechRate) || v.SpeechRate < 0.5 || v.SpeechRate > 2 {
		v.SpeechRate = defaults.SpeechRate
	}
	if v.VoiceIndex < -1 {
		v.VoiceIndex = defaults.VoiceIndex
	}
	return v
}

// DefaultPath resolves $XDG_CONFIG_HOME/voxboard/settings.json with a home fallback.
func DefaultPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "voxboard", "settings.json"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for settings fallback")
	}
	return filepath.Join(home, ".config", "voxboard", "settings.json"), nil
}

// Store reads and writes Values as JSON on an afero filesystem.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore returns a store at path. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the saved values, or defaults when nothing has been saved.
// Missing keys keep their defaults.
func (s *Store) Load() (Values, bool, error) {
	content, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), false, nil
		}
		return Defaults(), false, fmt.Errorf("read settings %q: %w", s.path, err)
	}

	values := Defaults()
	if strings.TrimSpace(string(content)) == "" {
		return values, true, nil
	}
	if err := json.Unmarshal(content, &values); err != nil {
		return Defaults(), true, fmt.Errorf("parse settings %q: %w", s.path, err)
	}
	return values.Sanitize(), true, nil
}

// Save writes values through a temp file and rename so watchers never see a
// partial file.
func (s *Store) Save(values Values) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	content, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	content = append(content, '\n')

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, content, 0o600); err != nil {
		return fmt.Errorf("write settings %q: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace settings %q: %w", s.path, err)
	}
	return nil
}

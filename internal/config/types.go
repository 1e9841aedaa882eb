// Package config resolves, parses, validates, and defaults voxboard configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by voxboard.
type Config struct {
	Recognizer   RecognizerConfig
	Speech       SpeechConfig
	Haptic       HapticConfig
	Memory       MemoryConfig
	Indicator    IndicatorConfig
	SettingsPath string
	Health       HealthConfig
}

// RecognizerConfig describes the external streaming recognizer and its restart pacing.
type RecognizerConfig struct {
	Command      CommandConfig
	Language     string
	Input        string
	Fallback     string
	EndRetryMS   int
	AbortRetryMS int
	ErrorRetryMS int
}

// EndRetry is the retry delay after a failed restart following a normal end.
func (c RecognizerConfig) EndRetry() time.Duration {
	return time.Duration(c.EndRetryMS) * time.Millisecond
}

// AbortRetry is the delay before restarting after an aborted run.
func (c RecognizerConfig) AbortRetry() time.Duration {
	return time.Duration(c.AbortRetryMS) * time.Millisecond
}

// ErrorRetry is the delay before restarting after a recognizer error.
func (c RecognizerConfig) ErrorRetry() time.Duration {
	return time.Duration(c.ErrorRetryMS) * time.Millisecond
}

// SpeechConfig controls the speech synthesizer command.
type SpeechConfig struct {
	Command CommandConfig
	Rate    float64
}

// HapticConfig controls the vibration backend.
type HapticConfig struct {
	Enable  bool
	Backend string
}

// MemoryConfig holds memory-game resolution delays.
type MemoryConfig struct {
	MatchDelayMS    int
	MismatchDelayMS int
	CompleteDelayMS int
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool
	Backend        string
	DesktopAppName string
	SoundEnable    bool
	TextListening  string
	TextRestarting string
	TextInactive   string
	ErrorTimeoutMS int
}

// HealthConfig controls the gRPC health endpoint. An empty address disables it.
type HealthConfig struct {
	Address string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

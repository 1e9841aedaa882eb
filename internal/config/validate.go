package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	lang := strings.TrimSpace(cfg.Recognizer.Language)
	if lang == "" {
		return nil, fmt.Errorf("recognizer.language must not be empty")
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("recognizer.language %q is not a BCP-47 tag: %w", lang, err)
	}
	englishBase, _ := language.English.Base()
	if base, _ := tag.Base(); base != englishBase {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("recognizer.language %q: command grammars are English only", lang)})
	}
	if strings.TrimSpace(cfg.Recognizer.Input) == "" {
		return nil, fmt.Errorf("recognizer.input must not be empty")
	}
	if cfg.Recognizer.EndRetryMS <= 0 {
		return nil, fmt.Errorf("recognizer.end_retry_ms must be > 0")
	}
	if cfg.Recognizer.AbortRetryMS <= 0 {
		return nil, fmt.Errorf("recognizer.abort_retry_ms must be > 0")
	}
	if cfg.Recognizer.ErrorRetryMS <= 0 {
		return nil, fmt.Errorf("recognizer.error_retry_ms must be > 0")
	}
	if cfg.Recognizer.Command.Raw != "" && len(cfg.Recognizer.Command.Argv) == 0 {
		return nil, fmt.Errorf("recognizer.command is configured but empty")
	}
	if len(cfg.Recognizer.Command.Argv) == 0 {
		warnings = append(warnings, Warning{Message: "recognizer.command is not set; voice input is unavailable"})
	}
	for _, token := range unknownPlaceholders(cfg.Recognizer.Command.Argv) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("recognizer.command placeholder %s is not recognized and is passed through as-is", token)})
	}

	if len(cfg.Speech.Command.Argv) == 0 {
		return nil, fmt.Errorf("speech.command must not be empty")
	}
	if cfg.Speech.Rate < 0.5 || cfg.Speech.Rate > 2 {
		return nil, fmt.Errorf("speech.rate must be within [0.5, 2]")
	}

	hapticBackend := strings.ToLower(strings.TrimSpace(cfg.Haptic.Backend))
	if hapticBackend != "pulse" && hapticBackend != "none" {
		return nil, fmt.Errorf("haptic.backend must be one of: pulse, none")
	}

	if cfg.Memory.MatchDelayMS <= 0 {
		return nil, fmt.Errorf("memory.match_delay_ms must be > 0")
	}
	if cfg.Memory.MismatchDelayMS <= 0 {
		return nil, fmt.Errorf("memory.mismatch_delay_ms must be > 0")
	}
	if cfg.Memory.CompleteDelayMS <= 0 {
		return nil, fmt.Errorf("memory.complete_delay_ms must be > 0")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if addr := strings.TrimSpace(cfg.Health.Address); addr != "" && !strings.Contains(addr, ":") {
		return nil, fmt.Errorf("health.address must be host:port")
	}

	return warnings, nil
}

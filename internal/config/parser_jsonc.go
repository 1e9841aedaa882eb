package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Recognizer   *jsoncRecognizer `json:"recognizer"`
	Speech       *jsoncSpeech     `json:"speech"`
	Haptic       *jsoncHaptic     `json:"haptic"`
	Memory       *jsoncMemory     `json:"memory"`
	Indicator    *jsoncIndicator  `json:"indicator"`
	SettingsPath *string          `json:"settings_path"`
	Health       *jsoncHealth     `json:"health"`
}

type jsoncRecognizer struct {
	Command      *string `json:"command"`
	Language     *string `json:"language"`
	Input        *string `json:"input"`
	Fallback     *string `json:"fallback"`
	EndRetryMS   *int    `json:"end_retry_ms"`
	AbortRetryMS *int    `json:"abort_retry_ms"`
	ErrorRetryMS *int    `json:"error_retry_ms"`
}

type jsoncSpeech struct {
	Command *string  `json:"command"`
	Rate    *float64 `json:"rate"`
}

type jsoncHaptic struct {
	Enable  *bool   `json:"enable"`
	Backend *string `json:"backend"`
}

type jsoncMemory struct {
	MatchDelayMS    *int `json:"match_delay_ms"`
	MismatchDelayMS *int `json:"mismatch_delay_ms"`
	CompleteDelayMS *int `json:"complete_delay_ms"`
}

type jsoncIndicator struct {
	Enable         *bool   `json:"enable"`
	Backend        *string `json:"backend"`
	DesktopAppName *string `json:"desktop_app_name"`
	SoundEnable    *bool   `json:"sound_enable"`
	TextListening  *string `json:"text_listening"`
	TextRestarting *string `json:"text_restarting"`
	TextInactive   *string `json:"text_inactive"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

type jsoncHealth struct {
	Address *string `json:"address"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	warnings, err := payload.applyTo(&cfg)
	if err != nil {
		return Config{}, nil, err
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if r := payload.Recognizer; r != nil {
		if r.Command != nil {
			command, err := parseCommand("recognizer.command", *r.Command)
			if err != nil {
				return nil, err
			}
			cfg.Recognizer.Command = command
		}
		if r.Language != nil {
			cfg.Recognizer.Language = strings.TrimSpace(*r.Language)
		}
		if r.Input != nil {
			cfg.Recognizer.Input = strings.TrimSpace(*r.Input)
		}
		if r.Fallback != nil {
			cfg.Recognizer.Fallback = strings.TrimSpace(*r.Fallback)
		}
		if r.EndRetryMS != nil {
			cfg.Recognizer.EndRetryMS = *r.EndRetryMS
		}
		if r.AbortRetryMS != nil {
			cfg.Recognizer.AbortRetryMS = *r.AbortRetryMS
		}
		if r.ErrorRetryMS != nil {
			cfg.Recognizer.ErrorRetryMS = *r.ErrorRetryMS
		}
	}

	if s := payload.Speech; s != nil {
		if s.Command != nil {
			command, err := parseCommand("speech.command", *s.Command)
			if err != nil {
				return nil, err
			}
			cfg.Speech.Command = command
		}
		if s.Rate != nil {
			cfg.Speech.Rate = *s.Rate
		}
	}

	if h := payload.Haptic; h != nil {
		if h.Enable != nil {
			cfg.Haptic.Enable = *h.Enable
		}
		if h.Backend != nil {
			cfg.Haptic.Backend = strings.TrimSpace(*h.Backend)
		}
	}

	if m := payload.Memory; m != nil {
		if m.MatchDelayMS != nil {
			cfg.Memory.MatchDelayMS = *m.MatchDelayMS
		}
		if m.MismatchDelayMS != nil {
			cfg.Memory.MismatchDelayMS = *m.MismatchDelayMS
		}
		if m.CompleteDelayMS != nil {
			cfg.Memory.CompleteDelayMS = *m.CompleteDelayMS
		}
	}

	if payload.Indicator != nil {
		if payload.Indicator.Enable != nil {
			cfg.Indicator.Enable = *payload.Indicator.Enable
		}
		if payload.Indicator.Backend != nil {
			cfg.Indicator.Backend = strings.TrimSpace(*payload.Indicator.Backend)
		}
		if payload.Indicator.DesktopAppName != nil {
			cfg.Indicator.DesktopAppName = strings.TrimSpace(*payload.Indicator.DesktopAppName)
		}
		if payload.Indicator.SoundEnable != nil {
			cfg.Indicator.SoundEnable = *payload.Indicator.SoundEnable
		}
		if payload.Indicator.TextListening != nil {
			cfg.Indicator.TextListening = *payload.Indicator.TextListening
		}
		if payload.Indicator.TextRestarting != nil {
			cfg.Indicator.TextRestarting = *payload.Indicator.TextRestarting
		}
		if payload.Indicator.TextInactive != nil {
			cfg.Indicator.TextInactive = *payload.Indicator.TextInactive
		}
		if payload.Indicator.ErrorTimeoutMS != nil {
			cfg.Indicator.ErrorTimeoutMS = *payload.Indicator.ErrorTimeoutMS
		}
	}

	if payload.SettingsPath != nil {
		cfg.SettingsPath = strings.TrimSpace(*payload.SettingsPath)
	}

	if payload.Health != nil && payload.Health.Address != nil {
		cfg.Health.Address = strings.TrimSpace(*payload.Health.Address)
	}

	return warnings, nil
}

func parseCommand(key string, raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

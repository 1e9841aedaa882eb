package config

// Default returns the canonical runtime configuration used when no file is present.
// No recognizer command is configured by default; voice input then stays
// unavailable until one is set or `run --stdin` is used.
func Default() Config {
	speech := "spd-say"

	return Config{
		Recognizer: RecognizerConfig{
			Language:     "en-US",
			Input:        "default",
			Fallback:     "default",
			EndRetryMS:   1000,
			AbortRetryMS: 100,
			ErrorRetryMS: 2000,
		},
		Speech: SpeechConfig{
			Command: CommandConfig{Raw: speech, Argv: mustParseArgv(speech)},
			Rate:    1,
		},
		Haptic: HapticConfig{
			Enable:  true,
			Backend: "pulse",
		},
		Memory: MemoryConfig{
			MatchDelayMS:    1000,
			MismatchDelayMS: 1500,
			CompleteDelayMS: 1000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "voxboard-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
	}
}

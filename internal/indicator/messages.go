package indicator

import (
	"os"
	"strings"

	"github.com/rbright/voxboard/internal/config"
)

type locale string

const (
	localeEnglish locale = "en"
)

type messages struct {
	listening  string
	restarting string
	inactive   string
}

func indicatorMessagesFromEnv() messages {
	return indicatorMessages(resolveLocale(os.Getenv("LANG")))
}

func resolveLocale(raw string) locale {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if strings.HasPrefix(raw, "en") {
		return localeEnglish
	}
	return localeEnglish
}

func indicatorMessages(tag locale) messages {
	switch tag {
	case localeEnglish:
		fallthrough
	default:
		return messages{
			listening:  "Listening",
			restarting: "Voice recognition restarting",
			inactive:   "Voice recognition inactive",
		}
	}
}

func (m messages) withOverrides(cfg config.IndicatorConfig) messages {
	if text := strings.TrimSpace(cfg.TextListening); text != "" {
		m.listening = text
	}
	if text := strings.TrimSpace(cfg.TextRestarting); text != "" {
		m.restarting = text
	}
	if text := strings.TrimSpace(cfg.TextInactive); text != "" {
		m.inactive = text
	}
	return m
}

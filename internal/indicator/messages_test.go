package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/voxboard/internal/config"
)

func TestResolveLocaleDefaultsToEnglish(t *testing.T) {
	require.Equal(t, localeEnglish, resolveLocale("en_US.UTF-8"))
	require.Equal(t, localeEnglish, resolveLocale("fr_FR.UTF-8"))
}

func TestIndicatorMessagesEnglish(t *testing.T) {
	msg := indicatorMessages(localeEnglish)
	require.Equal(t, "Listening", msg.listening)
	require.Equal(t, "Voice recognition restarting", msg.restarting)
	require.Equal(t, "Voice recognition inactive", msg.inactive)
}

func TestMessagesConfigOverrides(t *testing.T) {
	msg := indicatorMessages(localeEnglish).withOverrides(config.IndicatorConfig{TextListening: " Ears on ", TextInactive: "Off"})
	require.Equal(t, "Ears on", msg.listening)
	require.Equal(t, "Voice recognition restarting", msg.restarting)
	require.Equal(t, "Off", msg.inactive)
}

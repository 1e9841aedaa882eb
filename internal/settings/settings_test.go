package settings

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/rbright/voxboard/internal/speech"
)

type fakeSpeech struct {
	mu     sync.Mutex
	spoken []string
	rate   float64
	voice  int
	voices []speech.Voice
}

func newFakeSpeech() *fakeSpeech {
	return &fakeSpeech{
		rate:  1,
		voice: -1,
		voices: []speech.Voice{
			{Index: 0, Name: "alice", Language: "en"},
			{Index: 1, Name: "bruno", Language: "en"},
		},
	}
}

func (f *fakeSpeech) Speak(text string, _ bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return true
}

func (f *fakeSpeech) SetRate(rate float64) bool {
	if rate < 0.5 || rate > 2 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = rate
	return true
}

func (f *fakeSpeech) Voices() []speech.Voice { return f.voices }

func (f *fakeSpeech) SelectVoice(index int) bool {
	if index < -1 || index >= len(f.voices) {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voice = index
	return true
}

func (f *fakeSpeech) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.spoken) == 0 {
		return ""
	}
	return f.spoken[len(f.spoken)-1]
}

type fakeHaptics struct {
	mu        sync.Mutex
	enabled   bool
	intensity float64
	pulses    []int
}

func (f *fakeHaptics) Pulse(ms int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.enabled {
		return false
	}
	f.pulses = append(f.pulses, ms)
	return true
}

func (f *fakeHaptics) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func (f *fakeHaptics) SetIntensity(intensity float64) bool {
	if intensity < 0.5 || intensity > 2 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intensity = intensity
	return true
}

func newController(t *testing.T) (*Controller, *Store, *fakeSpeech, *fakeHaptics) {
	t.Helper()
	store := NewStore(afero.NewMemMapFs(), "/config/voxboard/settings.json")
	sp := newFakeSpeech()
	hp := &fakeHaptics{}
	c := NewController(store, sp, hp, nil)
	require.NoError(t, c.Load())
	return c, store, sp, hp
}

func TestStoreLoadMissingReturnsDefaults(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/cfg/settings.json")
	values, exists, err := store.Load()
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, Defaults(), values)
}

func TestStoreSaveRoundTripAndPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/cfg/voxboard/settings.json")

	want := Values{VibrationEnabled: false, VibrationIntensity: 1.5, VoiceIndex: 2, SpeechRate: 0.7}
	require.NoError(t, store.Save(want))

	got, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, want, got)

	_, err = fs.Stat("/cfg/voxboard/settings.json.tmp")
	require.True(t, os.IsNotExist(err))

	require.NoError(t, afero.WriteFile(fs, store.Path(), []byte(`{"speech_rate": 1.3}`), 0o600))
	got, _, err = store.Load()
	require.NoError(t, err)
	require.Equal(t, 1.3, got.SpeechRate)
	require.True(t, got.VibrationEnabled)
	require.Equal(t, -1, got.VoiceIndex)
}

func TestStoreLoadRejectsMalformedJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "/cfg/settings.json")
	require.NoError(t, afero.WriteFile(fs, store.Path(), []byte(`{"speech_rate":`), 0o600))

	values, exists, err := store.Load()
	require.Error(t, err)
	require.ErrorContains(t, err, "parse settings")
	require.True(t, exists)
	require.Equal(t, Defaults(), values)
}

func TestSanitizeReplacesOutOfRangeValues(t *testing.T) {
	got := Values{VibrationIntensity: 9, SpeechRate: 0.1, VoiceIndex: -4}.Sanitize()
	require.Equal(t, 1.0, got.VibrationIntensity)
	require.Equal(t, 1.0, got.SpeechRate)
	require.Equal(t, -1, got.VoiceIndex)
}

func TestDefaultPathUsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/xdg/voxboard/settings.json", path)
}

func TestLoadAppliesSavedValues(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/cfg/settings.json")
	require.NoError(t, store.Save(Values{VibrationEnabled: true, VibrationIntensity: 0.7, VoiceIndex: 1, SpeechRate: 1.3}))

	sp := newFakeSpeech()
	hp := &fakeHaptics{}
	c := NewController(store, sp, hp, nil)
	require.NoError(t, c.Load())

	require.Equal(t, 1.3, sp.rate)
	require.Equal(t, 1, sp.voice)
	require.True(t, hp.enabled)
	require.Equal(t, 0.7, hp.intensity)
}

func TestSetDefaultsAppliesUntilSomethingIsSaved(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/cfg/settings.json")
	sp := newFakeSpeech()
	c := NewController(store, sp, &fakeHaptics{}, nil)

	defaults := Defaults()
	defaults.SpeechRate = 1.3
	c.SetDefaults(defaults)
	require.NoError(t, c.Load())
	require.Equal(t, 1.3, sp.rate)

	require.NoError(t, store.Save(Values{VibrationEnabled: true, VibrationIntensity: 1, VoiceIndex: -1, SpeechRate: 0.7}))
	require.NoError(t, c.Load())
	require.Equal(t, 0.7, sp.rate)
}

func TestSpeechRateCommands(t *testing.T) {
	tests := []struct {
		text string
		rate float64
		say  string
	}{
		{text: "speed slow", rate: SlowRate, say: "Speech rate set to slow"},
		{text: "make the rate faster", rate: FastRate, say: "Speech rate set to fast"},
		{text: "speed normal", rate: NormalRate, say: "Speech rate set to normal"},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			c, store, sp, _ := newController(t)
			c.HandleTranscript(tc.text)

			require.Equal(t, tc.say, sp.last())
			require.Equal(t, tc.rate, sp.rate)

			saved, exists, err := store.Load()
			require.NoError(t, err)
			require.True(t, exists)
			require.Equal(t, tc.rate, saved.SpeechRate)
		})
	}
}

func TestVibrationToggle(t *testing.T) {
	c, store, sp, hp := newController(t)

	c.HandleTranscript("vibration off")
	require.Equal(t, "Vibration disabled", sp.last())
	require.False(t, hp.enabled)
	require.Empty(t, hp.pulses)

	c.HandleTranscript("turn vibration on")
	require.Equal(t, "Vibration enabled", sp.last())
	require.True(t, hp.enabled)
	require.Equal(t, []int{0}, hp.pulses)

	saved, _, err := store.Load()
	require.NoError(t, err)
	require.True(t, saved.VibrationEnabled)
}

func TestVibrationWordIsNotReadAsOn(t *testing.T) {
	c, _, sp, hp := newController(t)
	c.HandleTranscript("vibration off")
	c.HandleTranscript("vibration")

	require.Equal(t, "Vibration disabled", sp.last())
	require.False(t, hp.enabled)
}

func TestVibrationIntensity(t *testing.T) {
	c, _, sp, hp := newController(t)

	c.HandleTranscript("haptic strong")
	require.Equal(t, "Vibration intensity set to high", sp.last())
	require.Equal(t, HighIntensity, hp.intensity)
	require.Equal(t, []int{75}, hp.pulses)

	c.HandleTranscript("vibration gentle")
	require.Equal(t, "Vibration intensity set to low", sp.last())
	require.Equal(t, []int{75, 35}, hp.pulses)

	c.HandleTranscript("vibration medium")
	require.Equal(t, "Vibration intensity set to medium", sp.last())
	require.Equal(t, MediumIntensity, c.Values().VibrationIntensity)
}

func TestVoiceSelection(t *testing.T) {
	c, store, sp, _ := newController(t)

	c.HandleTranscript("voice two")
	require.Equal(t, "Voice set to bruno", sp.last())
	require.Equal(t, 1, sp.voice)

	c.HandleTranscript("voice 1")
	require.Equal(t, "Voice set to alice", sp.last())

	saved, _, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 0, saved.VoiceIndex)

	for _, text := range []string{"voice", "voice nine", "voice 0"} {
		c.HandleTranscript(text)
		require.Equal(t, "Please specify a valid voice number.", sp.last(), text)
	}
	require.Equal(t, 0, c.Values().VoiceIndex)
}

func TestSaveAnnouncesAndPulses(t *testing.T) {
	c, store, sp, hp := newController(t)
	hp.SetEnabled(true)

	c.HandleTranscript("save")
	require.Equal(t, "Settings saved", sp.last())
	require.Equal(t, []int{SavePulseMS}, hp.pulses)

	_, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
}

func TestUnrelatedSettingsTranscriptIsIgnored(t *testing.T) {
	c, _, sp, _ := newController(t)
	c.HandleTranscript("volume up")
	require.Empty(t, sp.spoken)
	require.Equal(t, Defaults(), c.Values())
}

func TestReloadAppliesExternalEdit(t *testing.T) {
	c, store, sp, hp := newController(t)

	require.NoError(t, store.Save(Values{VibrationEnabled: false, VibrationIntensity: 2, VoiceIndex: -1, SpeechRate: 0.7}))
	c.Reload()

	require.Equal(t, 0.7, sp.rate)
	require.False(t, hp.enabled)
	require.Equal(t, 2.0, hp.intensity)
	require.Equal(t, 0.7, c.Values().SpeechRate)
}

func TestWatcherReportsAtomicSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxboard", "settings.json")

	var changes atomic.Int32
	w, err := NewWatcher(path, func() { changes.Add(1) }, nil)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	store := NewStore(afero.NewOsFs(), path)
	require.NoError(t, store.Save(Defaults()))

	require.Eventually(t, func() bool { return changes.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.json"), []byte("{}"), 0o600))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), changes.Load())

	cancel()
	require.NoError(t, <-done)
}

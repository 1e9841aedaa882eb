package app

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/rbright/voxboard/internal/chess"
	"github.com/rbright/voxboard/internal/clock"
	"github.com/rbright/voxboard/internal/config"
	"github.com/rbright/voxboard/internal/debugfeed"
	"github.com/rbright/voxboard/internal/ipc"
	"github.com/rbright/voxboard/internal/logging"
	"github.com/rbright/voxboard/internal/memory"
	"github.com/rbright/voxboard/internal/speech"
)

type spokenLog struct {
	mu    sync.Mutex
	texts []string
}

func (s *spokenLog) Available() bool { return true }

func (s *spokenLog) Say(_ context.Context, u speech.Utterance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, u.Text)
	return nil
}

func (s *spokenLog) Cancel(context.Context) error { return nil }

func (s *spokenLog) Voices(context.Context) ([]speech.Voice, error) { return nil, nil }

func (s *spokenLog) contains(fragment string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, text := range s.texts {
		if strings.Contains(text, fragment) {
			return true
		}
	}
	return false
}

type vibrations struct {
	mu    sync.Mutex
	count int
}

func (v *vibrations) Supported() bool { return true }

func (v *vibrations) Vibrate(time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.count++
	return nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Indicator.Enable = false
	cfg.Memory = config.MemoryConfig{MatchDelayMS: 5, MismatchDelayMS: 5, CompleteDelayMS: 5}
	return cfg
}

func newTestDaemon(t *testing.T, opts daemonOptions) (*daemon, *spokenLog) {
	t.Helper()

	spoken := &spokenLog{}
	opts.SpeechBackend = spoken
	opts.HapticBackend = &vibrations{}
	opts.SettingsFs = afero.NewMemMapFs()
	opts.SettingsPath = "/cfg/settings.json"
	if opts.Scheduler == nil {
		opts.Scheduler = clock.NewManual(time.Unix(0, 0))
	}

	d, err := newDaemon(context.Background(), testConfig(), opts, logging.Discard())
	require.NoError(t, err)
	return d, spoken
}

func handle(d *daemon, command string, args ...string) ipc.Response {
	return d.Handle(context.Background(), ipc.Request{Command: command, Args: args})
}

func TestDaemonSayNavigatesAndPlaysChess(t *testing.T) {
	d, spoken := newTestDaemon(t, daemonOptions{})
	d.nav.Start()
	t.Cleanup(d.shutdown)

	resp := handle(d, "say", "Start")
	require.True(t, resp.OK, resp.Error)
	require.Equal(t, "games", resp.View)
	require.Contains(t, resp.Message, "navigation")

	resp = handle(d, "say", "chess")
	require.True(t, resp.OK)
	require.Equal(t, "chess", resp.View)

	resp = handle(d, "say", "move pawn to e4")
	require.True(t, resp.OK)
	require.Contains(t, resp.Message, "chess")

	resp = handle(d, "board")
	require.True(t, resp.OK)
	var snap chess.Snapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snap))
	require.Equal(t, chess.Black, snap.Turn)
	require.Equal(t, 1, snap.Moves)
	require.Contains(t, resp.Message, "turn: black")

	require.Eventually(t, func() bool { return spoken.contains("Pawn from e2 to e4") }, 2*time.Second, 5*time.Millisecond)
}

func TestDaemonSayRejectsBlankText(t *testing.T) {
	d, _ := newTestDaemon(t, daemonOptions{})
	d.nav.Start()
	t.Cleanup(d.shutdown)

	resp := handle(d, "say", "   ")
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "nothing to say")
}

func TestDaemonClickRequiresChessView(t *testing.T) {
	d, _ := newTestDaemon(t, daemonOptions{})
	d.nav.Start()
	t.Cleanup(d.shutdown)

	resp := handle(d, "click", "e2")
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "not available in this view")

	require.True(t, handle(d, "view", "chess").OK)

	resp = handle(d, "click", "z9")
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "invalid square")

	require.True(t, handle(d, "click", "g1").OK)
	resp = handle(d, "click", "f3")
	require.True(t, resp.OK)
	require.Contains(t, resp.Message, "from g1 to f3")
}

func TestDaemonFlipAndMemoryBoard(t *testing.T) {
	d, _ := newTestDaemon(t, daemonOptions{})
	d.nav.Start()
	t.Cleanup(d.shutdown)

	require.False(t, handle(d, "flip", "1").OK)
	require.True(t, handle(d, "view", "memory").OK)

	resp := handle(d, "flip", "1")
	require.True(t, resp.OK)
	require.NotContains(t, resp.Message, "card not flipped")

	resp = handle(d, "flip", "1")
	require.True(t, resp.OK)
	require.Contains(t, resp.Message, "card not flipped")

	resp = handle(d, "flip", "one")
	require.False(t, resp.OK)

	resp = handle(d, "board")
	require.True(t, resp.OK)
	var snap memory.Snapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snap))
	require.Equal(t, []int{0}, snap.Flipped)
}

func TestDaemonViewAndBoardErrors(t *testing.T) {
	d, _ := newTestDaemon(t, daemonOptions{})
	d.nav.Start()
	t.Cleanup(d.shutdown)

	resp := handle(d, "view", "arcade")
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown view")

	resp = handle(d, "view")
	require.False(t, resp.OK)

	resp = handle(d, "board")
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "no board in this view: home")

	resp = handle(d, "dance")
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
}

func TestDaemonStatusAndFeed(t *testing.T) {
	d, _ := newTestDaemon(t, daemonOptions{})
	d.nav.Start()
	t.Cleanup(d.shutdown)

	require.True(t, handle(d, "say", "settings").OK)

	resp := handle(d, "status")
	require.True(t, resp.OK)
	require.Equal(t, "idle", resp.State)
	require.Equal(t, "settings", resp.View)
	var status statusData
	require.NoError(t, json.Unmarshal(resp.Data, &status))
	require.True(t, status.Settings.VibrationEnabled)
	require.Equal(t, 1.0, status.Settings.SpeechRate)

	resp = handle(d, "feed")
	require.True(t, resp.OK)
	var entries []debugfeed.Entry
	require.NoError(t, json.Unmarshal(resp.Data, &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "settings", entries[0].Text)
	require.Contains(t, resp.Message, "final settings")
}

func TestDaemonRunStopsAfterStdinIsExhausted(t *testing.T) {
	d, spoken := newTestDaemon(t, daemonOptions{
		Stdin:     strings.NewReader("start\nmemory\n"),
		Scheduler: clock.Real{},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, d.run(ctx, nil))

	require.True(t, spoken.contains("Memory Card Game"))
	require.True(t, spoken.contains("Memory game started"))
	require.Nil(t, d.nav.Memory())
}

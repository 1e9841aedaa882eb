package views

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/voxboard/internal/bus"
	"github.com/rbright/voxboard/internal/chess"
	"github.com/rbright/voxboard/internal/clock"
	"github.com/rbright/voxboard/internal/grammar"
	"github.com/rbright/voxboard/internal/memory"
)

type recorder struct {
	mu     sync.Mutex
	spoken []string
	pulses []int
}

func (r *recorder) Speak(text string, _ bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spoken = append(r.spoken, text)
	return true
}

func (r *recorder) Pulse(ms int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulses = append(r.pulses, ms)
	return true
}

func (r *recorder) said(text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spoken {
		if s == text {
			return true
		}
	}
	return false
}

type settingsRecorder struct {
	transcripts []string
}

func (s *settingsRecorder) HandleTranscript(text string) {
	s.transcripts = append(s.transcripts, text)
}

type fixture struct {
	bus      *bus.Bus
	rec      *recorder
	settings *settingsRecorder
	clock    *clock.Manual
	nav      *Navigator
	mounted  []Name
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bus:      bus.New(nil),
		rec:      &recorder{},
		settings: &settingsRecorder{},
		clock:    clock.NewManual(time.Unix(0, 0)),
	}
	f.nav = New(Deps{
		Bus:      f.bus,
		Speaker:  f.rec,
		Haptics:  f.rec,
		Settings: f.settings,
		NewMemory: func() *memory.Game {
			return memory.New(memory.DefaultConfig(), memory.Deps{Speaker: f.rec, Haptics: f.rec, Scheduler: f.clock})
		},
		Observer: func(name Name) { f.mounted = append(f.mounted, name) },
	})
	f.nav.Start()
	t.Cleanup(f.nav.Close)
	return f
}

func (f *fixture) subscriptions() int {
	total := 0
	for _, category := range grammar.Categories() {
		total += f.bus.Count(category)
	}
	return total
}

func TestStartMountsHomeWithWelcome(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, Home, f.nav.Current())
	require.Equal(t, []string{welcome}, f.rec.spoken)
	require.Empty(t, f.rec.pulses)
	require.Equal(t, 1, f.bus.Count(grammar.Navigation))
}

func TestHomeNavigation(t *testing.T) {
	tests := []struct {
		text string
		want Name
	}{
		{text: "start", want: Games},
		{text: "start chess", want: Chess},
		{text: "play memory", want: Memory},
		{text: "open settings", want: Settings},
		{text: "go back", want: Home},
	}

	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			f := newFixture(t)
			f.nav.Dispatch(tc.text)
			require.Equal(t, tc.want, f.nav.Current())
		})
	}
}

func TestNavigationPulsesAndAnnouncesTitle(t *testing.T) {
	f := newFixture(t)
	f.nav.Dispatch("start")

	require.Equal(t, []int{NavigationPulseMS}, f.rec.pulses)
	require.True(t, f.rec.said("Games Menu"))
	require.Equal(t, []Name{Home, Games}, f.mounted)
}

func TestChessViewRoutesMovesAndStartsFreshGame(t *testing.T) {
	f := newFixture(t)
	f.nav.Dispatch("start chess")
	require.True(t, f.rec.said("Chess game started. White to move."))

	game := f.nav.Chess()
	require.NotNil(t, game)
	require.Nil(t, f.nav.Memory())

	f.nav.Dispatch("move pawn to e4")
	snap := game.Snapshot()
	require.Equal(t, chess.Black, snap.Turn)

	f.nav.Dispatch("exit")
	require.Equal(t, Games, f.nav.Current())
	require.Nil(t, f.nav.Chess())

	f.nav.Dispatch("chess")
	require.NotSame(t, game, f.nav.Chess())
	require.Equal(t, chess.White, f.nav.Chess().Snapshot().Turn)
}

func TestUnmountRemovesEverySubscription(t *testing.T) {
	f := newFixture(t)
	f.nav.Dispatch("start memory")
	require.Equal(t, 1, f.bus.Count(grammar.Memory))
	require.Equal(t, 1, f.bus.Count(grammar.Navigation))

	f.nav.Dispatch("home")
	require.Equal(t, Home, f.nav.Current())
	require.Zero(t, f.bus.Count(grammar.Memory))
	require.Equal(t, 1, f.subscriptions())
}

func TestSwapIsDeferredUntilDispatchCompletes(t *testing.T) {
	f := newFixture(t)

	var seen []string
	f.bus.Subscribe(grammar.Navigation, func(text string) {
		seen = append(seen, "late:"+text)
	})

	// home's handler requests games, yet the later subscriber still runs and the
	// games handler mounted by the swap does not see this transcript.
	f.nav.Dispatch("start games")
	require.Equal(t, Games, f.nav.Current())
	require.Equal(t, []string{"late:start games"}, seen)
	require.Equal(t, []Name{Home, Games}, f.mounted)
}

func TestSettingsViewRoutesSettingsTranscripts(t *testing.T) {
	f := newFixture(t)
	f.nav.Dispatch("settings")
	require.Equal(t, Settings, f.nav.Current())

	f.nav.Dispatch("speed slow")
	require.Equal(t, []string{"speed slow"}, f.settings.transcripts)

	f.nav.Dispatch("back")
	require.Equal(t, Home, f.nav.Current())

	f.nav.Dispatch("speed fast")
	require.Len(t, f.settings.transcripts, 1)
}

func TestMemoryUnmountSilencesPendingResolution(t *testing.T) {
	f := newFixture(t)
	f.nav.Dispatch("play memory")
	game := f.nav.Memory()
	require.NotNil(t, game)

	require.True(t, game.Flip(0))
	require.True(t, game.Flip(1))
	f.nav.Dispatch("home")
	spoken := len(f.rec.spoken)

	f.clock.Advance(5 * time.Second)
	require.Len(t, f.rec.spoken, spoken)
}

func TestGoValidatesName(t *testing.T) {
	f := newFixture(t)
	require.ErrorIs(t, f.nav.Go("arcade"), ErrUnknownView)

	require.NoError(t, f.nav.Go(Settings))
	require.Equal(t, Settings, f.nav.Current())

	// remounting the current view is a no-op
	require.NoError(t, f.nav.Go(Settings))
	require.Equal(t, []Name{Home, Settings}, f.mounted)
}

func TestParseName(t *testing.T) {
	name, err := ParseName(" Memory ")
	require.NoError(t, err)
	require.Equal(t, Memory, name)
	require.Len(t, Names(), 5)
}

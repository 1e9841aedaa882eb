package memory

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/voxboard/internal/clock"
)

type recorder struct {
	spoken []string
	pulses []int
}

func (r *recorder) Speak(text string, _ bool) bool {
	r.spoken = append(r.spoken, text)
	return true
}

func (r *recorder) Pulse(ms int) bool {
	r.pulses = append(r.pulses, ms)
	return true
}

func (r *recorder) last() string {
	if len(r.spoken) == 0 {
		return ""
	}
	return r.spoken[len(r.spoken)-1]
}

func newGame(t *testing.T) (*Game, *recorder, *clock.Manual) {
	t.Helper()
	rec := &recorder{}
	manual := clock.NewManual(time.Unix(0, 0))
	game := New(DefaultConfig(), Deps{
		Speaker:   rec,
		Haptics:   rec,
		Scheduler: manual,
		Rand:      rand.New(rand.NewPCG(7, 11)),
	})
	return game, rec, manual
}

// pairIndices returns the indices of a matching pair and of a card that differs
// from the first of them.
func pairIndices(t *testing.T, cards []Card) (first, match, other int) {
	t.Helper()
	first, match, other = 0, -1, -1
	for i := 1; i < len(cards); i++ {
		if cards[i].Symbol == cards[first].Symbol {
			match = i
		} else if other == -1 {
			other = i
		}
	}
	require.NotEqual(t, -1, match)
	require.NotEqual(t, -1, other)
	return first, match, other
}

func TestNewDeckHasTwoOfEachSymbol(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewPCG(1, 2)))
	require.Len(t, deck, 12)

	counts := map[string]int{}
	ids := map[int]bool{}
	for _, card := range deck {
		counts[card.Symbol.Description]++
		ids[card.ID] = true
		require.False(t, card.FaceUp)
		require.False(t, card.Matched)
	}
	for _, symbol := range Symbols {
		require.Equal(t, 2, counts[symbol.Description], symbol.Description)
	}
	require.Len(t, ids, 12)

	again := NewDeck(rand.New(rand.NewPCG(1, 2)))
	require.Equal(t, deck, again)
}

func TestParseCardNumber(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{text: "flip card one", want: 1, ok: true},
		{text: "flip card twelve", want: 12, ok: true},
		{text: "flip card 7", want: 7, ok: true},
		{text: "card 3rd", want: 3, ok: true},
		{text: "flip 2 and five", want: 2, ok: true},
		{text: "flip card 13", ok: false},
		{text: "flip card 0", ok: false},
		{text: "flip card", ok: false},
		{text: "flip 99 card four", want: 4, ok: true},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			got, ok := ParseCardNumber(tc.text, 12)
			require.Equal(t, tc.ok, ok)
			if ok {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestMatchResolvesAfterDelay(t *testing.T) {
	game, rec, manual := newGame(t)
	first, match, _ := pairIndices(t, game.Snapshot().Cards)

	require.True(t, game.Flip(first))
	require.True(t, game.Flip(match))

	snap := game.Snapshot()
	require.Equal(t, 1, snap.Moves)
	require.Equal(t, 0, snap.Matches)
	require.Len(t, snap.Flipped, 2)

	manual.Advance(999 * time.Millisecond)
	require.Equal(t, 0, game.Snapshot().Matches)

	manual.Advance(time.Millisecond)
	snap = game.Snapshot()
	require.Equal(t, 1, snap.Matches)
	require.Equal(t, 1, snap.Moves)
	require.Empty(t, snap.Flipped)
	require.True(t, snap.Cards[first].Matched)
	require.True(t, snap.Cards[match].Matched)
	require.Equal(t, "Match found!", rec.last())
	require.Equal(t, []int{0, 0, MatchPulseMS}, rec.pulses)
}

func TestMismatchFlipsBackAfterDelay(t *testing.T) {
	game, rec, manual := newGame(t)
	first, _, other := pairIndices(t, game.Snapshot().Cards)

	game.Flip(first)
	game.Flip(other)
	require.Equal(t, 1, game.Snapshot().Moves)

	manual.Advance(time.Second)
	require.True(t, game.Snapshot().Cards[first].FaceUp)

	manual.Advance(500 * time.Millisecond)
	snap := game.Snapshot()
	require.False(t, snap.Cards[first].FaceUp)
	require.False(t, snap.Cards[other].FaceUp)
	require.False(t, snap.Cards[first].Matched)
	require.Equal(t, 0, snap.Matches)
	require.Equal(t, 1, snap.Moves)
	require.Empty(t, snap.Flipped)
	require.Equal(t, "No match.", rec.last())
}

func TestThirdFlipWhilePendingIsIgnored(t *testing.T) {
	game, rec, _ := newGame(t)
	first, _, other := pairIndices(t, game.Snapshot().Cards)
	game.Flip(first)
	game.Flip(other)

	third := -1
	for i := range game.Snapshot().Cards {
		if i != first && i != other {
			third = i
			break
		}
	}
	before := game.Snapshot()
	spoken := len(rec.spoken)

	require.False(t, game.Flip(third))
	require.Equal(t, before, game.Snapshot())
	require.Len(t, rec.spoken, spoken)
}

func TestFlipFaceUpCardIsRejected(t *testing.T) {
	game, rec, _ := newGame(t)
	game.Flip(4)
	require.False(t, game.Flip(4))
	require.Equal(t, "Card already flipped or matched.", rec.last())
	require.Equal(t, 0, game.Snapshot().Moves)
	require.False(t, game.Flip(12))
}

func TestVoiceFlipAnnouncesCard(t *testing.T) {
	game, rec, _ := newGame(t)
	cards := game.Snapshot().Cards

	game.HandleTranscript("flip card three")
	require.Equal(t, "Card 3: "+cards[2].Symbol.Description, rec.last())
	require.True(t, game.Snapshot().Cards[2].FaceUp)

	game.HandleTranscript("flip card 13")
	require.Equal(t, "Please specify a valid card number.", rec.last())

	spoken := len(rec.spoken)
	game.HandleTranscript("twelve")
	require.Len(t, rec.spoken, spoken)
}

func TestCompletingTheDeckAnnouncesMoves(t *testing.T) {
	game, rec, manual := newGame(t)
	cards := game.Snapshot().Cards

	// one miss first so the move count differs from the pair count
	first, _, other := pairIndices(t, cards)
	game.Flip(first)
	game.Flip(other)
	manual.Advance(DefaultConfig().MismatchDelay)

	seen := map[int]bool{}
	for i := range cards {
		if seen[i] {
			continue
		}
		for j := i + 1; j < len(cards); j++ {
			if !seen[j] && cards[j].Symbol == cards[i].Symbol {
				seen[i], seen[j] = true, true
				require.True(t, game.Flip(i))
				require.True(t, game.Flip(j))
				manual.Advance(DefaultConfig().MatchDelay)
				break
			}
		}
	}

	snap := game.Snapshot()
	require.Equal(t, 6, snap.Matches)
	require.True(t, snap.Complete)
	require.Equal(t, "Match found!", rec.last())

	manual.Advance(DefaultConfig().CompleteDelay)
	require.Equal(t, "Congratulations! You completed the game in 7 moves.", rec.last())
}

func TestResetDealsNewDeckAndCancelsPendingResolution(t *testing.T) {
	game, rec, manual := newGame(t)
	first, match, _ := pairIndices(t, game.Snapshot().Cards)
	game.Flip(first)
	game.Flip(match)
	generation := game.Snapshot().Generation

	game.HandleTranscript("reset")
	require.Equal(t, "Game reset.", rec.last())
	require.Equal(t, ResetPulseMS, rec.pulses[len(rec.pulses)-1])

	manual.Advance(5 * time.Second)
	snap := game.Snapshot()
	require.Equal(t, generation+1, snap.Generation)
	require.Equal(t, 0, snap.Matches)
	require.Equal(t, 0, snap.Moves)
	require.Empty(t, snap.Flipped)
	require.Len(t, snap.Cards, 12)
	for _, card := range snap.Cards {
		require.False(t, card.FaceUp)
		require.False(t, card.Matched)
	}
	require.Equal(t, "Game reset.", rec.last())
}

func TestStartAnnouncesInstructions(t *testing.T) {
	game, rec, _ := newGame(t)
	game.Start()
	require.Equal(t, `Memory game started. Flip cards by saying "flip card 1" or by touching them.`, rec.last())
	require.Equal(t, uint64(1), game.Snapshot().Generation)
}

func TestRenderHidesFaceDownCards(t *testing.T) {
	game, _, _ := newGame(t)
	cards := game.Snapshot().Cards
	game.Flip(0)

	out := game.Render()
	require.Contains(t, out, " 1:"+cards[0].Symbol.Description)
	require.Contains(t, out, " 2:?")
	require.Contains(t, out, "matches: 0/6 moves: 0\n")
}

func TestStopSilencesPendingResolution(t *testing.T) {
	game, rec, manual := newGame(t)
	first, _, other := pairIndices(t, game.Snapshot().Cards)
	require.True(t, game.Flip(first))
	require.True(t, game.Flip(other))
	spoken := len(rec.spoken)

	game.Stop()
	manual.Advance(5 * time.Second)

	require.Len(t, rec.spoken, spoken)
	require.Len(t, game.Snapshot().Flipped, 2)
}

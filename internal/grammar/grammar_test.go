package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMatchesAnyContainedKeyword(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		want       []Category
	}{
		{name: "empty", transcript: "", want: nil},
		{name: "settings word", transcript: "settings", want: []Category{Navigation, Chess}},
		{name: "memory flip", transcript: "flip card three", want: []Category{Chess, Memory}},
		{name: "chess move", transcript: "pawn to e4", want: []Category{Chess}},
		{name: "vibration toggle", transcript: "vibration on", want: []Category{Chess, Settings}},
		{name: "no match", transcript: "xyz", want: []Category{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.transcript)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestMatchesIsSubstringContainment(t *testing.T) {
	for _, category := range Categories() {
		for _, keyword := range Keywords(category) {
			require.True(t, Matches("xx"+keyword+"yy", category), "keyword %q in %s", keyword, category)
		}
	}

	// "xyz" contains no keyword of any grammar.
	for _, category := range Categories() {
		require.False(t, Matches("xyz", category))
	}
}

func TestMatchesAgreesWithKeywordScan(t *testing.T) {
	transcripts := []string{
		"move knight from b1 to c3",
		"go home",
		"vibration off",
		"twelve",
		"qqq",
		"rest",
	}
	for _, transcript := range transcripts {
		for _, category := range Categories() {
			want := false
			for _, keyword := range Keywords(category) {
				if strings.Contains(transcript, keyword) {
					want = true
					break
				}
			}
			require.Equal(t, want, Matches(transcript, category), "%q vs %s", transcript, category)
		}
	}
}

func TestMatchedKeywordReturnsFirstInVocabularyOrder(t *testing.T) {
	keyword, ok := MatchedKeyword("flip card seven", Memory)
	require.True(t, ok)
	require.Equal(t, "flip", keyword)

	_, ok = MatchedKeyword("qqq", Memory)
	require.False(t, ok)
}

func TestKeywordsReturnsCopy(t *testing.T) {
	words := Keywords(Navigation)
	words[0] = "mutated"
	require.Equal(t, "start", Keywords(Navigation)[0])
}

func TestParseCategory(t *testing.T) {
	category, err := ParseCategory(" Chess ")
	require.NoError(t, err)
	require.Equal(t, Chess, category)

	_, err = ParseCategory("poker")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command category")
}

package moderation

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const mask = '#'

func TestModerator_Censor(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	// Dictionary words chosen so none hides inside an ordinary word of the inputs
	mod, err := NewModerator([]string{"jerk", "moron", "dimwit"}, mask, log)
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
		want  string
		words []string
	}{
		{
			name:  "single hit keeps the rest untouched",
			input: "you jerk, hi",
			want:  "you ####, hi",
			words: []string{"jerk"},
		},
		{
			name:  "repeated hits",
			input: "moron moron",
			want:  "##### #####",
			words: []string{"moron", "moron"},
		},
		{
			name:  "separators inside the word are masked too",
			input: "what a j.e.r.k",
			want:  "what a #######",
			words: []string{"jerk"},
		},
		{
			name:  "digits and symbols standing for letters",
			input: "d1mw!t and m0r0n",
			want:  "###### and #####",
			words: []string{"dimwit", "moron"},
		},
		{
			name:  "case is ignored",
			input: "JERK",
			want:  "####",
			words: []string{"jerk"},
		},
		{
			name:  "accented text is preserved",
			input: "café avec un jerk",
			want:  "café avec un ####",
			words: []string{"jerk"},
		},
		{
			name:  "trailing punctuation is kept",
			input: "bye moron!",
			want:  "bye #####!",
			words: []string{"moron"},
		},
		{
			name:  "clean message",
			input: "hello there",
			want:  "hello there",
		},
		{
			name:  "empty message",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			got, words := mod.Censor(tt.input)

			req.Equal(tt.want, got)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_DictionaryWithoutLetters(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given entries that fold to nothing next to a real word
	mod, err := NewModerator([]string{"...", "  ", "", "jerk"}, mask, log)
	req.NoError(err)

	// Then only the real word is masked
	got, words := mod.Censor("stop it jerk")
	req.Equal("stop it ####", got)
	req.Equal([]string{"jerk"}, words)

	// Then punctuation is never a hit
	got, words = mod.Censor("wait ...")
	req.Equal("wait ...", got)
	req.Nil(words)
}

// Package moderation masks forbidden words in chat messages before they are
// persisted and relayed.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator is safe for concurrent use once built: the automaton is read-only.
type Moderator struct {
	log     *slog.Logger
	matcher *goahocorasick.Machine
	mask    rune
}

// folded is a message reduced to its searchable letters. positions[i] is the
// index in the original runes of letters[i].
type folded struct {
	letters   []rune
	positions []int
}

// NewModerator builds the automaton over the folded dictionary.
// Entries without any letter left after folding are dropped.
func NewModerator(words []string, mask rune, log *slog.Logger) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		pattern := fold(word).letters
		if len(pattern) == 0 {
			log.Debug("Dropping dictionary entry without letters", "word", word)
			continue
		}
		patterns = append(patterns, pattern)
	}

	matcher := new(goahocorasick.Machine)
	if err := matcher.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{log: log, matcher: matcher, mask: mask}, nil
}

// Censor masks every dictionary hit in text, rune for rune, so the message
// keeps its length and layout. It returns the masked text and the hits in order.
func (m *Moderator) Censor(text string) (string, []string) {
	f := fold(text)
	if len(f.letters) == 0 {
		return text, nil
	}
	hits := m.matcher.MultiPatternSearch(f.letters, false)
	if len(hits) == 0 {
		return text, nil
	}

	runes := []rune(text)
	words := make([]string, 0, len(hits))
	for _, hit := range hits {
		end := hit.Pos + len(hit.Word)
		if hit.Pos < 0 || end > len(f.positions) {
			continue
		}
		for i := f.positions[hit.Pos]; i <= f.positions[end-1]; i++ {
			runes[i] = m.mask
		}
		words = append(words, string(hit.Word))
	}
	return string(runes), words
}

func fold(text string) folded {
	runes := []rune(text)
	f := folded{letters: make([]rune, 0, len(runes)), positions: make([]int, 0, len(runes))}
	for i, r := range runes {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		f.letters = append(f.letters, unicode.ToLower(r))
		f.positions = append(f.positions, i)
	}
	return f
}

// unleet maps the usual digit and symbol substitutions back to letters.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	}
	return r
}

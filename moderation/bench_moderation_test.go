package moderation

import (
	"fmt"
	"log/slog"
	"testing"
)

func BenchmarkModerator_Censor(b *testing.B) {
	dictionary := make([]string, 0, 10_000)
	for i := range 10_000 {
		dictionary = append(dictionary, fmt.Sprintf("insult%dword", i))
	}
	mod, err := NewModerator(dictionary, '*', slog.Default())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for b.Loop() {
		mod.Censor("hey stranger, nice to meet you, insult4242word aside")
	}
}

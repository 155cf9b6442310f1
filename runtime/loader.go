package runtime

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"pair-chat/errors"
	"path"
	"slices"
	"strings"

	"github.com/samber/lo"
)

//go:embed censored/*
var censoredFolder embed.FS

const censoredDir = "censored"

// WordList is the moderation dictionary and the languages it was built from.
type WordList struct {
	Words     []string
	Languages []string
}

// LoadWordList reads every "<lang>.txt" file of dir, one word per line,
// and returns the deduplicated words sorted.
func LoadWordList(fsys fs.FS, dir string) (WordList, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return WordList{}, err
	}

	var languages []string
	unique := make(map[string]struct{})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return WordList{}, err
		}
		// Scanner handles both \n and \r\n
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				unique[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return WordList{}, err
		}
	}

	if len(unique) == 0 {
		return WordList{}, errors.ErrEmptyWords
	}

	words := lo.Keys(unique)
	slices.Sort(words)
	return WordList{Words: words, Languages: languages}, nil
}

// LoadEmbeddedWordList reads the dictionaries shipped with the binary.
func LoadEmbeddedWordList() (WordList, error) {
	return LoadWordList(censoredFolder, censoredDir)
}

package moderation

import (
	"bufio"
	"embed"
	"strings"

	"bluecollar-chat/errors"
)

//go:embed words/*.txt
var wordsFolder embed.FS

type WordList struct {
	Languages []string
	Words     []string
}

// LoadWords reads every embedded wordlist. One file per language,
// named by its ISO code, one word per line, '#' starts a comment.
func LoadWords() (WordList, error) {
	entries, err := wordsFolder.ReadDir("words")
	if err != nil {
		return WordList{}, err
	}

	var list WordList
	seen := make(map[string]struct{})
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".txt")
		list.Languages = append(list.Languages, lang)

		file, err := wordsFolder.Open("words/" + entry.Name())
		if err != nil {
			return WordList{}, err
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			list.Words = append(list.Words, word)
		}
		_ = file.Close()
		if err := scanner.Err(); err != nil {
			return WordList{}, err
		}
	}

	if len(list.Words) == 0 {
		return WordList{}, errors.ErrEmptyWords
	}
	return list, nil
}

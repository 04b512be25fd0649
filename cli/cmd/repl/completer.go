package repl

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// maxBarCandidates caps how many matches render in the hint bar.
const maxBarCandidates = 8

// wordAt returns the identifier word surrounding the cursor and its
// byte offsets within input.
func wordAt(input string, cursor int) (word string, start, end int) {
	if cursor > len(input) {
		cursor = len(input)
	}

	isWord := func(b byte) bool {
		return b == '_' || b == '.' ||
			('a' <= b && b <= 'z') ||
			('A' <= b && b <= 'Z') ||
			('0' <= b && b <= '9')
	}

	start = cursor
	for start > 0 && isWord(input[start-1]) {
		start--
	}

	end = cursor
	for end < len(input) && isWord(input[end]) {
		end++
	}

	return input[start:end], start, end
}

// matchWord fuzzy-matches the word at the cursor against candidates.
func matchWord(candidates []string, input string, cursor int) fuzzy.Matches {
	word, _, _ := wordAt(input, cursor)
	if word == "" || strings.Contains(word, ".") {
		return nil
	}

	return fuzzy.Find(word, candidates)
}

// complete replaces the word at the cursor with the best fuzzy match
// and returns the new input text and cursor position. Input is returned
// unchanged when nothing matches.
func complete(candidates []string, input string, cursor int) (string, int) {
	word, start, end := wordAt(input, cursor)
	if word == "" || strings.Contains(word, ".") {
		return input, cursor
	}

	matches := fuzzy.Find(word, candidates)
	if len(matches) == 0 {
		return input, cursor
	}

	best := matches[0].Str

	return input[:start] + best + input[end:], start + len(best)
}

// completionBar renders a horizontal bar of fuzzy candidates for the
// last word of input, or empty when nothing matches.
func completionBar(candidates []string, input string) string {
	matches := matchWord(candidates, input, len(input))
	if len(matches) == 0 {
		return ""
	}

	if len(matches) > maxBarCandidates {
		matches = matches[:maxBarCandidates]
	}

	parts := make([]string, len(matches))
	for i, match := range matches {
		parts[i] = match.Str
	}

	return hintStyle.Render(strings.Join(parts, "  "))
}

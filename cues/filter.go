package cues

import (
	"sort"
	"strings"
)

// GenreOptions returns every distinct tag across cues, sorted alphabetically.
func GenreOptions(cues []Cue) []string {
	seen := make(map[string]bool)
	options := make([]string, 0)
	for _, c := range cues {
		for _, tag := range Tags(c.Genre) {
			if !seen[tag] {
				seen[tag] = true
				options = append(options, tag)
			}
		}
	}
	sort.Strings(options)
	return options
}

// Matches reports whether a cue's title contains search (case-insensitive)
// and, when genre is non-empty, whether the cue carries that tag.
func Matches(c Cue, search, genre string) bool {
	if search != "" && !strings.Contains(fold(c.Title), fold(search)) {
		return false
	}
	if strings.TrimSpace(genre) != "" && !HasTag(c.Genre, genre) {
		return false
	}
	return true
}

// Filter returns the cues matching search and genre, preserving order.
func Filter(cues []Cue, search, genre string) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, c := range cues {
		if Matches(c, search, genre) {
			out = append(out, c)
		}
	}
	return out
}

// EmptyMessage picks the message shown when a filtered view has no cues.
func EmptyMessage(total int) string {
	if total == 0 {
		return MsgNoCues
	}
	return MsgNoMatches
}

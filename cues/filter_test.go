package cues

import (
	"reflect"
	"testing"
)

func sampleCues() []Cue {
	return []Cue{
		{ID: "1", Title: "Main Theme", Composer: "A", Genre: "Jazz"},
		{ID: "2", Title: "End Credits", Composer: "B", Genre: "Noir"},
		{ID: "3", Title: "Chase", Composer: "C", Genre: "Noir, Action"},
	}
}

func TestGenreOptions(t *testing.T) {
	got := GenreOptions(sampleCues())
	want := []string{"action", "jazz", "noir"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenreOptions = %v, want %v", got, want)
	}

	if got := GenreOptions(nil); len(got) != 0 {
		t.Errorf("Expected no options for empty list, got %v", got)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		genre   string
		wantIDs []string
	}{
		{name: "search only", search: "theme", wantIDs: []string{"1"}},
		{name: "genre only", genre: "noir", wantIDs: []string{"2", "3"}},
		{name: "genre case-insensitive", genre: "NOIR", wantIDs: []string{"2", "3"}},
		{name: "search and genre", search: "end", genre: "noir", wantIDs: []string{"2"}},
		{name: "no filters", wantIDs: []string{"1", "2", "3"}},
		{name: "no match", search: "waltz", wantIDs: []string{}},
		{name: "genre is not substring matched", genre: "act", wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleCues(), tt.search, tt.genre)
			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.search, tt.genre, ids, tt.wantIDs)
			}
		})
	}
}

func TestMatchesUnicodeCaseFolding(t *testing.T) {
	c := Cue{Title: "Straße der Nacht"}
	if !Matches(c, "STRASSE", "") {
		t.Error("Expected case folding to match ß against SS")
	}
}

func TestEmptyMessage(t *testing.T) {
	if got := EmptyMessage(0); got != MsgNoCues {
		t.Errorf("EmptyMessage(0) = %q", got)
	}
	if got := EmptyMessage(3); got != MsgNoMatches {
		t.Errorf("EmptyMessage(3) = %q", got)
	}
}

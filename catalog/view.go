package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/zenibako/cue-browser/cues"
)

// ErrSuperseded is returned by Load when a newer load started before it
// finished; its result was discarded.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Fetcher supplies the cue list.
type Fetcher interface {
	FetchCues(ctx context.Context) ([]cues.Cue, error)
}

// State is a snapshot of the view.
type State struct {
	Cues    []cues.Cue
	Loading bool
	Err     string
	Search  string
	Genre   string
}

// View holds the loaded cue list and the user's filters. The most recently
// started load wins; earlier loads in flight are cancelled and their
// results dropped.
type View struct {
	fetcher Fetcher

	mu         sync.Mutex
	cues       []cues.Cue
	loading    bool
	err        string
	search     string
	genre      string
	mounted    bool
	generation uint64
	cancel     context.CancelFunc
}

func NewView(f Fetcher) *View {
	return &View{fetcher: f}
}

// Mount performs the initial load once. Later calls are no-ops.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return nil
	}
	v.mounted = true
	v.mu.Unlock()
	return v.Load(ctx)
}

// Retry clears the error and reloads.
func (v *View) Retry(ctx context.Context) error {
	return v.Load(ctx)
}

// Load fetches the cue list. On failure the list is emptied and the error
// message stored.
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
	}
	v.generation++
	gen := v.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mounted = true
	v.loading = true
	v.err = ""
	v.mu.Unlock()
	defer cancel()

	list, err := v.fetcher.FetchCues(fetchCtx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		log.Debug("Discarding superseded cue load", "generation", gen, "current", v.generation)
		return ErrSuperseded
	}
	v.loading = false
	v.cancel = nil

	if err != nil {
		v.cues = nil
		v.err = messageFor(err)
		log.Warn("Failed to load cues", "error", v.err)
		return err
	}
	v.cues = list
	log.Info("Loaded cues", "count", len(list))
	return nil
}

func messageFor(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return fmt.Sprintf("%s: %v", DefaultErrorMessage, err)
}

// State returns a snapshot.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{
		Cues:    append([]cues.Cue(nil), v.cues...),
		Loading: v.loading,
		Err:     v.err,
		Search:  v.search,
		Genre:   v.genre,
	}
}

func (v *View) SetSearch(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = s
}

func (v *View) SetGenre(g string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.genre = g
}

// ClearFilters resets search and genre.
func (v *View) ClearFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.search = ""
	v.genre = ""
}

// GenreOptions lists the distinct genres of the loaded cues.
func (v *View) GenreOptions() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cues.GenreOptions(v.cues)
}

// Filtered returns the cues matching the current filters.
func (v *View) Filtered() []cues.Cue {
	v.mu.Lock()
	defer v.mu.Unlock()
	return cues.Filter(v.cues, v.search, v.genre)
}

// Empty describes what to show when the filtered list is empty. ok is
// false when there are cues to show, or while loading or in error.
func (v *View) Empty() (message string, canClearFilters bool, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading || v.err != "" {
		return "", false, false
	}
	if len(cues.Filter(v.cues, v.search, v.genre)) > 0 {
		return "", false, false
	}
	return cues.EmptyMessage(len(v.cues)), v.search != "" || v.genre != "", true
}

// CanClearFilters reports whether a search or genre filter is set.
func (v *View) CanClearFilters() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.search != "" || v.genre != ""
}

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"

	"github.com/zenibako/cue-browser/catalog"
	"github.com/zenibako/cue-browser/cues"
	"github.com/zenibako/cue-browser/player"
)

const (
	choiceFilters = "__filters"
	choiceReload  = "__reload"
	choiceQuit    = "__quit"
	choiceBack    = "__back"
	choiceToggle  = "toggle"
	choiceRestart = "restart"
	allGenres     = ""
)

var errQuit = errors.New("quit")

// browser drives the cue list view and cue cards from terminal forms.
type browser struct {
	view   *catalog.View
	client *catalog.Client
	engine *player.Engine
	coord  *player.Coordinator
	cards  map[string]*player.Card
}

func newBrowser(view *catalog.View, client *catalog.Client, engine *player.Engine) *browser {
	return &browser{
		view:   view,
		client: client,
		engine: engine,
		coord:  player.NewCoordinator(),
		cards:  make(map[string]*player.Card),
	}
}

func (b *browser) run(ctx context.Context) error {
	b.load(ctx, b.view.Mount)

	for ctx.Err() == nil {
		if st := b.view.State(); st.Err != "" {
			retry, err := b.askRetry(st.Err)
			if err != nil || !retry {
				return err
			}
			b.load(ctx, b.view.Retry)
			continue
		}

		if msg, canClear, empty := b.view.Empty(); empty {
			next, err := b.askEmpty(msg, canClear)
			if err != nil {
				return err
			}
			switch next {
			case choiceQuit:
				return nil
			case choiceReload:
				b.load(ctx, b.view.Load)
			case choiceFilters:
				if err := b.editFilters(); err != nil {
					return err
				}
			default:
				b.view.ClearFilters()
			}
			continue
		}

		choice, err := b.pickCue()
		if err != nil {
			return err
		}
		switch choice {
		case choiceQuit:
			return nil
		case choiceReload:
			b.load(ctx, b.view.Load)
		case choiceFilters:
			if err := b.editFilters(); err != nil {
				return err
			}
		default:
			if err := b.controlCue(ctx, choice); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}
		}
	}
	return ctx.Err()
}

// stop ends whatever is playing.
func (b *browser) stop() {
	if b.coord.Current() == nil {
		return
	}
	log.Info("Stopping playback")
	b.coord.Stop()
}

func (b *browser) load(ctx context.Context, fn func(context.Context) error) {
	var (
		err error
		ran bool
	)
	action := func() {
		ran = true
		err = fn(ctx)
	}
	if runErr := spinner.New().Title("Loading cues...").Action(action).Run(); runErr != nil && !ran {
		log.Debug("Spinner unavailable, loading without it", "error", runErr)
		action()
	}
	if err != nil && !errors.Is(err, catalog.ErrSuperseded) {
		log.Debug("Load finished with error", "error", err)
	}
}

func (b *browser) askRetry(message string) (bool, error) {
	retry := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Could not load cues").
				Description(message).
				Affirmative("Retry").
				Negative("Quit").
				Value(&retry),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return retry, nil
}

func (b *browser) askEmpty(message string, canClear bool) (string, error) {
	options := []huh.Option[string]{}
	if canClear {
		options = append(options, huh.NewOption("Clear filters", "clear"))
	}
	options = append(options,
		huh.NewOption("Change filters", choiceFilters),
		huh.NewOption("Reload", choiceReload),
		huh.NewOption("Quit", choiceQuit),
	)

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(message).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func (b *browser) editFilters() error {
	st := b.view.State()
	search, genre := st.Search, st.Genre

	genres := []huh.Option[string]{huh.NewOption("All genres", allGenres)}
	for _, g := range b.view.GenreOptions() {
		genres = append(genres, huh.NewOption(g, g))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Search").
				Placeholder("Search by title...").
				Value(&search),
			huh.NewSelect[string]().
				Title("Genre").
				Options(genres...).
				Value(&genre),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("failed to get filters: %w", err)
	}
	b.view.SetSearch(search)
	b.view.SetGenre(genre)
	return nil
}

func (b *browser) pickCue() (string, error) {
	filtered := b.view.Filtered()
	st := b.view.State()

	options := make([]huh.Option[string], 0, len(filtered)+3)
	for _, c := range filtered {
		options = append(options, huh.NewOption(cueLabel(c, b.card(c).Label()), c.ID))
	}
	options = append(options,
		huh.NewOption("Search / filter...", choiceFilters),
		huh.NewOption("Reload", choiceReload),
		huh.NewOption("Quit", choiceQuit),
	)

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Cues (%d of %d)", len(filtered), len(st.Cues))).
				Description(filterSummary(st.Search, st.Genre)).
				Options(options...).
				Height(20).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func (b *browser) controlCue(ctx context.Context, cueID string) error {
	var cue cues.Cue
	found := false
	for _, c := range b.view.Filtered() {
		if c.ID == cueID {
			cue, found = c, true
			break
		}
	}
	if !found {
		return nil
	}
	card := b.card(cue)

	for {
		options := []huh.Option[string]{}
		if card.CanToggle() {
			options = append(options, huh.NewOption(card.Label(), choiceToggle))
		}
		if card.CanRestart() {
			options = append(options, huh.NewOption(player.LabelRestart, choiceRestart))
		}
		options = append(options,
			huh.NewOption("Back to list", choiceBack),
			huh.NewOption("Quit", choiceQuit),
		)

		var choice string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title(cueTitle(cue)).
					Description(cueDetails(cue, card.Label())).
					Options(options...).
					Value(&choice),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		switch choice {
		case choiceToggle:
			if err := card.Toggle(ctx); err != nil {
				log.Warn("Control disabled", "cue", cue.ID, "state", card.State())
			}
		case choiceRestart:
			if err := card.Restart(ctx); err != nil {
				log.Warn("Control disabled", "cue", cue.ID, "state", card.State())
			}
		case choiceQuit:
			return errQuit
		default:
			return nil
		}
	}
}

// card returns the card for c, creating it on first use.
func (b *browser) card(c cues.Cue) *player.Card {
	if card, ok := b.cards[c.ID]; ok && card.Cue() == c {
		return card
	}
	var el player.Element
	if c.AudioURL != "" {
		el = b.engine.Element(c.ID, b.client.ResolveURL(c.AudioURL))
	}
	card := player.NewCard(c, el, b.coord)
	card.OnChange(func(cueID string, from, to player.State) {
		log.Info("Cue state", "cue", cueID, "from", from, "to", to)
	})
	b.cards[c.ID] = card
	return card
}

func cueTitle(c cues.Cue) string {
	if c.Title == "" {
		return "(untitled)"
	}
	return c.Title
}

func cueLabel(c cues.Cue, control string) string {
	var sb strings.Builder
	sb.WriteString(cueTitle(c))
	if c.Composer != "" {
		sb.WriteString(" · ")
		sb.WriteString(c.Composer)
	}
	if tags := cues.Tags(c.Genre); len(tags) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(tags, ", "))
		sb.WriteString("]")
	}
	sb.WriteString(" (")
	sb.WriteString(control)
	sb.WriteString(")")
	return sb.String()
}

func cueDetails(c cues.Cue, control string) string {
	lines := []string{}
	if c.Composer != "" {
		lines = append(lines, "Composer: "+c.Composer)
	}
	if c.Genre != "" {
		lines = append(lines, "Genre: "+c.Genre)
	}
	lines = append(lines, "Status: "+control)
	return strings.Join(lines, "\n")
}

func filterSummary(search, genre string) string {
	parts := []string{}
	if search != "" {
		parts = append(parts, fmt.Sprintf("search %q", search))
	}
	if genre != "" {
		parts = append(parts, "genre "+genre)
	}
	if len(parts) == 0 {
		return "No filters"
	}
	return "Filtered by " + strings.Join(parts, ", ")
}

package player

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/zenibako/cue-browser/cues"
)

// ErrControlDisabled is returned when a control is used in a state that
// disables it (no audio, or after a media error).
var ErrControlDisabled = errors.New("control disabled")

// State of a cue card's playback.
type State string

const (
	StateNoAudio State = "no-audio"
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateError   State = "error"
)

// Control labels
const (
	LabelNoAudio    = "No Audio"
	LabelAudioError = "Audio Error"
	LabelPlay       = "Play"
	LabelPause      = "Pause"
	LabelRestart    = "Restart"
)

// Card is the playback state machine for one cue.
type Card struct {
	cue     cues.Cue
	element Element
	coord   *Coordinator

	// ctl serializes Toggle and Restart. Media events only take mu, so
	// they may still land while a control is in flight.
	ctl sync.Mutex

	mu       sync.Mutex
	state    State
	onChange func(cueID string, from, to State)
}

// NewCard binds cue to element. A cue without an audio URL, or a nil
// element, yields a card that stays in StateNoAudio.
func NewCard(cue cues.Cue, element Element, coord *Coordinator) *Card {
	if coord == nil {
		coord = NewCoordinator()
	}
	c := &Card{
		cue:     cue,
		element: element,
		coord:   coord,
		state:   StateIdle,
	}
	if cue.AudioURL == "" || element == nil {
		c.state = StateNoAudio
		c.element = nil
		return c
	}
	if n, ok := element.(Notifier); ok {
		n.OnEvent(c.Handle)
	}
	return c
}

func (c *Card) Cue() cues.Cue {
	return c.cue
}

func (c *Card) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange registers fn to observe state transitions.
func (c *Card) OnChange(fn func(cueID string, from, to State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Label is the text of the play/pause control.
func (c *Card) Label() string {
	switch c.State() {
	case StateNoAudio:
		return LabelNoAudio
	case StateError:
		return LabelAudioError
	case StatePlaying:
		return LabelPause
	default:
		return LabelPlay
	}
}

func (c *Card) CanToggle() bool {
	s := c.State()
	return s != StateNoAudio && s != StateError
}

func (c *Card) CanRestart() bool {
	return c.CanToggle()
}

// Toggle pauses a playing card and plays any other enabled card. A
// rejected play moves the card to StateError; the error is logged, not
// returned.
func (c *Card) Toggle(ctx context.Context) error {
	c.ctl.Lock()
	defer c.ctl.Unlock()

	switch c.State() {
	case StateNoAudio, StateError:
		return ErrControlDisabled
	case StatePlaying:
		if err := c.element.Pause(); err != nil {
			log.Warn("Pause failed", "cue", c.cue.ID, "error", err)
			c.fail()
			return nil
		}
		c.transition(StatePaused, StatePlaying)
		return nil
	default:
		return c.play(ctx)
	}
}

// Restart seeks to the start and plays.
func (c *Card) Restart(ctx context.Context) error {
	c.ctl.Lock()
	defer c.ctl.Unlock()

	if !c.CanRestart() {
		return ErrControlDisabled
	}
	if err := c.element.Seek(0); err != nil {
		log.Warn("Seek failed", "cue", c.cue.ID, "error", err)
		c.fail()
		return nil
	}
	return c.play(ctx)
}

func (c *Card) play(ctx context.Context) error {
	c.coord.SetCurrent(c.element)
	if err := c.element.Play(ctx); err != nil {
		log.Warn("Play rejected", "cue", c.cue.ID, "error", err)
		c.coord.Release(c.element)
		c.fail()
		return nil
	}
	if !c.transition(StatePlaying, StateIdle, StatePaused, StatePlaying) {
		// an error event arrived while the play request was in flight
		log.Debug("Card left playable state during play", "cue", c.cue.ID, "state", c.State())
		if err := c.element.Pause(); err != nil {
			log.Warn("Pause failed", "cue", c.cue.ID, "error", err)
		}
		c.coord.Release(c.element)
	}
	return nil
}

// Handle applies a media event to the card.
func (c *Card) Handle(ev Event) {
	switch ev {
	case EventPlay:
		c.transition(StatePlaying, StateIdle, StatePaused)
	case EventPause:
		c.transition(StatePaused, StatePlaying)
	case EventEnded:
		c.transition(StateIdle, StatePlaying, StatePaused)
	case EventError:
		c.fail()
	case EventCanPlay:
		c.transition(StateIdle, StateError)
	default:
		log.Debug("Ignoring unknown media event", "cue", c.cue.ID, "event", ev)
	}
}

func (c *Card) fail() {
	c.transition(StateError, StateIdle, StatePlaying, StatePaused)
}

// transition moves to `to` when the current state is one of from. It
// reports whether the card is in `to` afterwards.
func (c *Card) transition(to State, from ...State) bool {
	c.mu.Lock()
	prev := c.state
	if prev == to {
		c.mu.Unlock()
		return true
	}
	if !slices.Contains(from, prev) {
		c.mu.Unlock()
		return false
	}
	c.state = to
	fn := c.onChange
	c.mu.Unlock()

	log.Debug("Cue state changed", "cue", c.cue.ID, "from", prev, "to", to)
	if fn != nil {
		fn(c.cue.ID, prev, to)
	}
	return true
}

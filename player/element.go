package player

import (
	"context"
	"time"

	"github.com/zenibako/cue-browser/messages"
)

// Event is a playback notification raised by a media element.
type Event string

const (
	EventPlay    Event = messages.EventPlay
	EventPause   Event = messages.EventPause
	EventEnded   Event = messages.EventEnded
	EventError   Event = messages.EventError
	EventCanPlay Event = messages.EventCanPlay
)

// Pauser is the part of a media element the Coordinator needs.
type Pauser interface {
	Pause() error
}

// Stopper is implemented by elements that can end playback outright.
type Stopper interface {
	Stop() error
}

// Element is a playable media source bound to one cue. Implementations
// must be comparable (pointer types) since the Coordinator tracks the
// current element by identity.
type Element interface {
	Pauser
	Play(ctx context.Context) error
	Seek(pos time.Duration) error
}

// Notifier is implemented by elements that report playback events.
type Notifier interface {
	OnEvent(fn func(Event))
}

package player

import (
	"context"
	"sync"
	"time"
)

// fakeElement records calls and echoes play/pause events synchronously.
type fakeElement struct {
	mu      sync.Mutex
	handler func(Event)
	silent  bool

	playErr  error
	pauseErr error
	seekErr  error

	plays  int
	pauses int
	seeks  []time.Duration
}

func (f *fakeElement) OnEvent(fn func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
}

func (f *fakeElement) emit(ev Event) {
	f.mu.Lock()
	h, silent := f.handler, f.silent
	f.mu.Unlock()
	if h != nil && !silent {
		h(ev)
	}
}

func (f *fakeElement) Play(ctx context.Context) error {
	f.mu.Lock()
	f.plays++
	err := f.playErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.emit(EventPlay)
	return nil
}

func (f *fakeElement) Pause() error {
	f.mu.Lock()
	f.pauses++
	err := f.pauseErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.emit(EventPause)
	return nil
}

func (f *fakeElement) Seek(pos time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, pos)
	return f.seekErr
}

func (f *fakeElement) counts() (plays, pauses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plays, f.pauses
}

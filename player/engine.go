package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/hypebeast/go-osc/osc"

	"github.com/zenibako/cue-browser/messages"
)

// Sender delivers OSC packets to the engine. *osc.Client satisfies it.
type Sender interface {
	Send(packet osc.Packet) error
}

// Engine controls an external OSC audio engine. Each cue becomes an
// engine cue addressed by its record id within this client's session;
// playback updates arrive on port+1.
type Engine struct {
	host       string
	port       int
	listenHost string
	session    string
	client     Sender
	builder    *messages.OSCAddressBuilder

	mu       sync.RWMutex
	handlers map[string]func(Event) // cue id -> handler

	serverMu sync.Mutex
	server   *osc.Server
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSender replaces the UDP client, mainly for tests.
func WithSender(s Sender) EngineOption {
	return func(e *Engine) {
		e.client = s
	}
}

// WithSession fixes the session id instead of generating one.
func WithSession(id string) EngineOption {
	return func(e *Engine) {
		e.session = id
	}
}

// WithListenHost sets the local address the update listener binds to.
func WithListenHost(host string) EngineOption {
	return func(e *Engine) {
		e.listenHost = host
	}
}

func NewEngine(host string, port int, opts ...EngineOption) *Engine {
	e := &Engine{
		host:       host,
		port:       port,
		listenHost: host,
		session:    uuid.NewString(),
		handlers:   make(map[string]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = osc.NewClient(host, port)
	}
	e.builder = messages.NewOSCAddressBuilder(e.session)
	return e
}

func (e *Engine) Session() string {
	return e.session
}

func (e *Engine) UpdatePort() int {
	return e.port + 1
}

// Element returns the media element for a cue. Nothing is sent until the
// element is first played or seeked.
func (e *Engine) Element(cueID, audioURL string) *EngineElement {
	return &EngineElement{engine: e, cueID: cueID, url: audioURL}
}

func (e *Engine) subscribe(cueID string, fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn == nil {
		delete(e.handlers, cueID)
		return
	}
	e.handlers[cueID] = fn
}

func (e *Engine) send(msgType messages.MessageType, cueID string, args ...any) error {
	address := e.builder.BuildCueAddress(msgType, cueID)
	if address == "" {
		return fmt.Errorf("no address for %s", msgType)
	}
	msg := osc.NewMessage(address)
	for _, arg := range args {
		msg.Append(arg)
	}
	log.Debug("Sending OSC message", "address", address, "args", args)
	if err := e.client.Send(msg); err != nil {
		return fmt.Errorf("send %s: %w", address, err)
	}
	return nil
}

// HandleMessage routes an inbound update to the cue's handler. Updates
// for other sessions or unknown cues are ignored.
func (e *Engine) HandleMessage(msg *osc.Message) {
	if !strings.HasPrefix(msg.Address, messages.UpdatePrefix) {
		log.Debugf("Ignoring non-update message: %s", msg.Address)
		return
	}
	session, cueID, event, ok := messages.ParseUpdateAddress(msg.Address)
	if !ok {
		log.Debugf("Malformed update address: %s", msg.Address)
		return
	}
	if session != e.session {
		log.Debug("Ignoring update for another session", "session", session)
		return
	}
	if !messages.IsEvent(event) {
		log.Debug("Ignoring unknown event", "cue", cueID, "event", event)
		return
	}

	e.mu.RLock()
	fn := e.handlers[cueID]
	e.mu.RUnlock()
	if fn == nil {
		log.Debug("No handler for cue update", "cue", cueID, "event", event)
		return
	}
	log.Debug("Engine update", "cue", cueID, "event", event, "args", msg.Arguments)
	fn(Event(event))
}

// Listen starts the update listener on port+1. It stops when ctx is done
// or Close is called.
func (e *Engine) Listen(ctx context.Context) error {
	e.serverMu.Lock()
	if e.server != nil {
		e.serverMu.Unlock()
		log.Debugf("Update listener already running")
		return nil
	}

	d := osc.NewStandardDispatcher()
	_ = d.AddMsgHandler("*", e.HandleMessage)

	addr := fmt.Sprintf("%s:%d", e.listenHost, e.UpdatePort())
	server := &osc.Server{
		Addr:       addr,
		Dispatcher: d,
	}
	e.server = server
	e.serverMu.Unlock()

	started := make(chan error, 1)
	go func() {
		err := server.ListenAndServe()
		if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			log.Errorf("Update listener exited with error: %v", err)
		}
		started <- err
	}()

	select {
	case err := <-started:
		e.serverMu.Lock()
		e.server = nil
		e.serverMu.Unlock()
		if err == nil {
			err = errors.New("listener exited")
		}
		return fmt.Errorf("listen for updates on %s: %w", addr, err)
	case <-time.After(200 * time.Millisecond):
	}

	log.Info("Listening for engine updates", "addr", addr, "session", e.session)

	go func() {
		<-ctx.Done()
		if err := e.Close(); err != nil {
			log.Warnf("Failed to close update listener: %v", err)
		}
	}()
	return nil
}

// Close stops the update listener.
func (e *Engine) Close() error {
	e.serverMu.Lock()
	defer e.serverMu.Unlock()
	if e.server == nil {
		return nil
	}
	err := e.server.CloseConnection()
	e.server = nil
	return err
}

// EngineElement is one cue loaded into the engine.
type EngineElement struct {
	engine *Engine
	cueID  string
	url    string

	mu     sync.Mutex
	loaded bool
}

// OnEvent routes the engine's updates for this cue to fn.
func (el *EngineElement) OnEvent(fn func(Event)) {
	el.engine.subscribe(el.cueID, fn)
}

func (el *EngineElement) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := el.ensureLoaded(); err != nil {
		return err
	}
	return el.engine.send(messages.MsgCueStart, el.cueID)
}

func (el *EngineElement) Pause() error {
	return el.engine.send(messages.MsgCuePause, el.cueID)
}

// Stop ends playback of a loaded cue. A cue never loaded has nothing to stop.
func (el *EngineElement) Stop() error {
	el.mu.Lock()
	loaded := el.loaded
	el.mu.Unlock()
	if !loaded {
		return nil
	}
	return el.engine.send(messages.MsgCueStop, el.cueID)
}

// Seek positions playback; the engine takes seconds as a float32.
func (el *EngineElement) Seek(pos time.Duration) error {
	if err := el.ensureLoaded(); err != nil {
		return err
	}
	return el.engine.send(messages.MsgCueLoadAt, el.cueID, float32(pos.Seconds()))
}

func (el *EngineElement) ensureLoaded() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	if el.loaded {
		return nil
	}
	if err := el.engine.send(messages.MsgCueLoad, el.cueID, el.url); err != nil {
		return err
	}
	el.loaded = true
	return nil
}

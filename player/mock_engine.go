package player

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hypebeast/go-osc/osc"

	"github.com/zenibako/cue-browser/messages"
)

// ReceivedMessage captures an OSC message received by the mock engine.
type ReceivedMessage struct {
	Address   string
	Arguments []any
	Timestamp time.Time
}

// MockCue is a cue as the mock engine sees it.
type MockCue struct {
	Session  string
	ID       string
	URL      string
	Position float32
	Playing  bool
}

// MockEngine simulates an OSC audio engine for tests. It answers start and
// pause requests with the matching update on port+1, or with an error
// update for cues marked as failing.
type MockEngine struct {
	host       string
	port       int
	updatePort int
	server     *osc.Server
	client     *osc.Client

	mu               sync.RWMutex
	isRunning        bool
	cues             map[string]*MockCue // cue id -> cue
	failing          map[string]bool
	receivedMessages []ReceivedMessage
}

func NewMockEngine(host string, port int) *MockEngine {
	return &MockEngine{
		host:       host,
		port:       port,
		updatePort: port + 1,
		client:     osc.NewClient(host, port+1),
		cues:       make(map[string]*MockCue),
		failing:    make(map[string]bool),
	}
}

// Start starts listening for engine requests.
func (m *MockEngine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("mock engine already running")
	}

	d := osc.NewStandardDispatcher()
	_ = d.AddMsgHandler("*", m.handle)

	m.server = &osc.Server{
		Addr:       fmt.Sprintf("%s:%d", m.host, m.port),
		Dispatcher: d,
	}
	server := m.server
	go func() {
		if err := server.ListenAndServe(); err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			log.Errorf("Mock engine error: %v", err)
		}
	}()

	// Give the server time to bind
	time.Sleep(100 * time.Millisecond)

	m.isRunning = true
	log.Infof("Mock audio engine started on %s:%d (updates: %d)", m.host, m.port, m.updatePort)
	return nil
}

// Stop stops the mock engine.
func (m *MockEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return nil
	}
	m.isRunning = false
	server := m.server
	m.server = nil
	if server != nil {
		if err := server.CloseConnection(); err != nil {
			log.Warnf("Failed to close mock engine: %v", err)
		}
	}
	log.Info("Mock audio engine stopped")
	return nil
}

// FailCue makes subsequent starts of cueID answer with an error update.
func (m *MockEngine) FailCue(cueID string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[cueID] = fail
}

// Finish reports that cueID played to the end.
func (m *MockEngine) Finish(cueID string) {
	m.stopAndNotify(cueID, messages.EventEnded)
}

// Recover reports that cueID is playable again.
func (m *MockEngine) Recover(cueID string) {
	m.FailCue(cueID, false)
	m.notify(cueID, messages.EventCanPlay)
}

func (m *MockEngine) GetCue(cueID string) *MockCue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cues[cueID]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

func (m *MockEngine) GetReceivedMessages() []ReceivedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ReceivedMessage, len(m.receivedMessages))
	copy(out, m.receivedMessages)
	return out
}

// GetMessagesForAction returns received messages whose address ends in
// "/"+action, e.g. "start".
func (m *MockEngine) GetMessagesForAction(action string) []ReceivedMessage {
	var out []ReceivedMessage
	for _, msg := range m.GetReceivedMessages() {
		if strings.HasSuffix(msg.Address, "/"+action) {
			out = append(out, msg)
		}
	}
	return out
}

func (m *MockEngine) handle(msg *osc.Message) {
	m.mu.Lock()
	m.receivedMessages = append(m.receivedMessages, ReceivedMessage{
		Address:   msg.Address,
		Arguments: msg.Arguments,
		Timestamp: time.Now(),
	})
	m.mu.Unlock()

	// /workspace/{session}/cue_id/{cue}/{action}
	parts := strings.Split(strings.TrimPrefix(msg.Address, "/"), "/")
	if len(parts) != 5 || parts[0] != "workspace" || parts[2] != "cue_id" {
		log.Debugf("Mock engine ignoring %s", msg.Address)
		return
	}
	session, cueID, action := parts[1], parts[3], parts[4]

	m.mu.Lock()
	cue, ok := m.cues[cueID]
	if !ok {
		cue = &MockCue{Session: session, ID: cueID}
		m.cues[cueID] = cue
	}
	var event string
	switch action {
	case "load":
		if len(msg.Arguments) > 0 {
			cue.URL, _ = msg.Arguments[0].(string)
		}
	case "loadAt":
		if len(msg.Arguments) > 0 {
			cue.Position, _ = msg.Arguments[0].(float32)
		}
	case "start":
		if m.failing[cueID] || cue.URL == "" {
			cue.Playing = false
			event = messages.EventError
		} else {
			cue.Playing = true
			event = messages.EventPlay
		}
	case "pause", "stop":
		if cue.Playing {
			cue.Playing = false
			event = messages.EventPause
		}
	}
	m.mu.Unlock()

	if event != "" {
		m.notify(cueID, event)
	}
}

func (m *MockEngine) stopAndNotify(cueID, event string) {
	m.mu.Lock()
	if c, ok := m.cues[cueID]; ok {
		c.Playing = false
	}
	m.mu.Unlock()
	m.notify(cueID, event)
}

func (m *MockEngine) notify(cueID, event string) {
	m.mu.RLock()
	cue, ok := m.cues[cueID]
	var session string
	if ok {
		session = cue.Session
	}
	m.mu.RUnlock()
	if !ok {
		log.Warnf("Mock engine has no cue %s", cueID)
		return
	}

	address := messages.NewOSCAddressBuilder(session).BuildUpdateAddress(cueID, event)
	if err := m.client.Send(osc.NewMessage(address)); err != nil {
		log.Errorf("Failed to send mock update: %v", err)
	}
}

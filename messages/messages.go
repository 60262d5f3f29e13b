package messages

import (
	"fmt"
	"strings"
)

// OSC vocabulary spoken to the audio engine. Requests are addressed to a
// cue within a session; the engine reports playback changes back on the
// update port with the same path under /update.

// Message types
type MessageType string

const (
	MsgCueLoad   MessageType = "cue_load"
	MsgCueStart  MessageType = "cue_start"
	MsgCuePause  MessageType = "cue_pause"
	MsgCueLoadAt MessageType = "cue_load_at"
	MsgCueStop   MessageType = "cue_stop"
	MsgUpdate    MessageType = "update"
)

// OSC Address patterns
const (
	AddrCueLoad   = "/workspace/{id}/cue_id/{unique_id}/load"
	AddrCueStart  = "/workspace/{id}/cue_id/{unique_id}/start"
	AddrCuePause  = "/workspace/{id}/cue_id/{unique_id}/pause"
	AddrCueLoadAt = "/workspace/{id}/cue_id/{unique_id}/loadAt"
	AddrCueStop   = "/workspace/{id}/cue_id/{unique_id}/stop"
	AddrUpdate    = "/update/workspace/{id}/cue_id/{unique_id}/{event}"

	UpdatePrefix = "/update"
)

// Playback events reported in update addresses
const (
	EventPlay    = "play"
	EventPause   = "pause"
	EventEnded   = "ended"
	EventError   = "error"
	EventCanPlay = "canplay"
)

// Events lists every event the engine may report.
var Events = []string{EventPlay, EventPause, EventEnded, EventError, EventCanPlay}

// IsEvent reports whether name is a known playback event.
func IsEvent(name string) bool {
	for _, e := range Events {
		if e == name {
			return true
		}
	}
	return false
}

// OSCAddressBuilder builds OSC addresses from message types and parameters
type OSCAddressBuilder struct {
	workspaceID string
}

// NewOSCAddressBuilder creates a builder for one session's addresses.
func NewOSCAddressBuilder(workspaceID string) *OSCAddressBuilder {
	return &OSCAddressBuilder{
		workspaceID: workspaceID,
	}
}

// BuildAddress builds an OSC address from a message type and parameters
func (b *OSCAddressBuilder) BuildAddress(msgType MessageType, params map[string]string) string {
	var address string

	switch msgType {
	case MsgCueLoad:
		address = AddrCueLoad
	case MsgCueStart:
		address = AddrCueStart
	case MsgCuePause:
		address = AddrCuePause
	case MsgCueLoadAt:
		address = AddrCueLoadAt
	case MsgCueStop:
		address = AddrCueStop
	case MsgUpdate:
		address = AddrUpdate
	default:
		return ""
	}

	if strings.Contains(address, "{id}") && b.workspaceID != "" {
		address = strings.ReplaceAll(address, "{id}", b.workspaceID)
	}

	for key, value := range params {
		placeholder := fmt.Sprintf("{%s}", key)
		address = strings.ReplaceAll(address, placeholder, value)
	}

	return address
}

// BuildCueAddress builds a request address for a cue by uniqueID
func (b *OSCAddressBuilder) BuildCueAddress(msgType MessageType, uniqueID string) string {
	if b.workspaceID == "" {
		return ""
	}
	return b.BuildAddress(msgType, map[string]string{"unique_id": uniqueID})
}

// BuildUpdateAddress builds the address the engine uses to report event.
func (b *OSCAddressBuilder) BuildUpdateAddress(uniqueID, event string) string {
	if b.workspaceID == "" {
		return ""
	}
	return b.BuildAddress(MsgUpdate, map[string]string{"unique_id": uniqueID, "event": event})
}

// ParseUpdateAddress splits an update address into its session, cue and
// event parts. Cue ids must not contain '/'.
func ParseUpdateAddress(address string) (workspaceID, uniqueID, event string, ok bool) {
	rest, found := strings.CutPrefix(address, UpdatePrefix+"/workspace/")
	if !found {
		return "", "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[1] != "cue_id" {
		return "", "", "", false
	}
	if parts[0] == "" || parts[2] == "" || parts[3] == "" {
		return "", "", "", false
	}
	return parts[0], parts[2], parts[3], true
}

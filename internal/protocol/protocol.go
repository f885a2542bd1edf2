// Package protocol defines the JSON messages exchanged between a world
// session and its client.
package protocol

import "encoding/json"

const Version = "1.0"

// Client message types.
const (
	TypeHello    = "HELLO"
	TypeTick     = "TICK"
	TypeInteract = "INTERACT"
)

// Server message types.
const (
	TypeWelcome  = "WELCOME"
	TypeProgress = "PROGRESS"
	TypeReady    = "READY"
	TypeAttach   = "ATTACH"
	TypeDetach   = "DETACH"
	TypeBlock    = "BLOCK"
	TypeError    = "ERROR"
)

// Interact actions.
const (
	ActionBreak = "BREAK"
	ActionPlace = "PLACE"
)

// BaseMessage lets unknown JSON messages be routed by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

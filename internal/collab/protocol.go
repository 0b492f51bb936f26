package collab

import (
	"encoding/json"

	"github.com/inamate/zoompan/internal/auth"
	"github.com/inamate/zoompan/internal/stage"
	"github.com/inamate/zoompan/internal/viewport"
)

type Message struct {
	Type     string          `json:"type"`
	StageID  string          `json:"stageId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// PresencePayload carries a client's pointer. Clients send it in parent
// (screen) coordinates; the hub rebroadcasts it in content coordinates so
// it stays pinned to the same spot on the content under any transform.
type PresencePayload struct {
	Pointer     *viewport.Point `json:"pointer,omitempty"`
	DisplayName string          `json:"displayName,omitempty"`
	Role        auth.Role       `json:"role,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string    `json:"clientId"`
	DisplayName string    `json:"displayName"`
	Role        auth.Role `json:"role"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

type WelcomePayload struct {
	ClientID string         `json:"clientId"`
	Role     auth.Role      `json:"role"`
	Stage    stage.Snapshot `json:"stage"`
}

type TransformPayload struct {
	Transform viewport.TransformResult `json:"transform"`
}

type StageClosedPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	For     string `json:"for,omitempty"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome     = "welcome"
	TypeStageClosed = "stage.closed"

	// Viewport
	TypeTransform    = "transform"
	TypeLayoutUpdate = "layout.update"

	// Gestures: "gesture." followed by a stage.CommandType, e.g.
	// "gesture.pinch.update". The payload is a stage.Command.
	TypeGesturePrefix = "gesture."
)

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}

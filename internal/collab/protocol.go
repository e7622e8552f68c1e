package collab

import (
	"encoding/json"

	"github.com/vectorpad/vectorpad/internal/scene"
)

// Message is the websocket envelope. Payload is type-specific.
type Message struct {
	Type       string          `json:"type"`
	DocumentID string          `json:"documentId,omitempty"`
	ClientID   string          `json:"clientId,omitempty"`
	UserID     string          `json:"userId,omitempty"`
	Seq        int64           `json:"seq,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Scene sync
	TypeSceneSync = "scene.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PresencePayload carries a collaborator's live editing context: cursor,
// selected element ids, active mode and viewport.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Mode        string     `json:"mode,omitempty"`
	Zoom        float64    `json:"zoom,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

// WelcomePayload tells a freshly connected client who it is.
type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	ServerSeq int64  `json:"serverSeq"`
}

// SceneSyncPayload carries the full authoritative scene.
type SceneSyncPayload struct {
	Elements  json.RawMessage `json:"elements"`
	ServerSeq int64           `json:"serverSeq"`
}

// OperationSubmitPayload is the payload for op.submit messages.
type OperationSubmitPayload struct {
	Operation scene.Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages.
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages.
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages.
type OperationBroadcastPayload struct {
	Operation scene.Operation `json:"operation"`
	UserID    string          `json:"userId"`
	ServerSeq int64           `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

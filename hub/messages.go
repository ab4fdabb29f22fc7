package hub

import (
	"encoding/json"
	"fmt"
)

// Inbound actions.
const (
	ActionJoin = "join"
	ActionMove = "move"
	ActionChat = "chat"
)

// Outbound actions.
const (
	ActionUpdatePlayers  = "updatePlayers"
	ActionRemoveCursor   = "removeCursor"
	ActionInvalidMessage = "invalidMessage"
)

// Envelope is the {action, payload} unit exchanged over the channel. The
// payload stays raw until the action is known.
type Envelope struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// JoinPayload carries the identity a client presents when entering a room.
type JoinPayload struct {
	Room   string `json:"room"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Color  string `json:"color,omitempty"`
}

// MovePayload is a cursor position update.
type MovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChatPayload carries a chat line. Room and name are tolerated for
// compatibility with older clients but the stamped session is authoritative.
type ChatPayload struct {
	Room    string `json:"room,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// MoveBroadcast is the outbound counterpart of MovePayload, annotated with
// the mover's identity.
type MoveBroadcast struct {
	Name   string  `json:"name"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Avatar string  `json:"avatar,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// RemoveCursorPayload tells clients to retract a departed player's cursor.
type RemoveCursorPayload struct {
	Name string `json:"name"`
}

// InvalidMessagePayload is sent only to a connection whose envelope could
// not be decoded.
type InvalidMessagePayload struct {
	Reason string `json:"reason"`
}

// Inbound is the decoded form of one client envelope: a tagged union keyed
// by Action with exactly one payload field set for known actions.
type Inbound struct {
	Action string
	Join   *JoinPayload
	Move   *MovePayload
	Chat   *ChatPayload
}

// DecodeInbound parses a raw client message. Unknown actions decode
// successfully with no payload set; the dispatcher ignores them. A malformed
// envelope or a payload that does not match its action's shape is an error.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Inbound{}, fmt.Errorf("malformed envelope: %w", err)
	}

	msg := Inbound{Action: env.Action}

	switch env.Action {
	case ActionJoin:
		msg.Join = &JoinPayload{}
		if err := json.Unmarshal(env.Payload, msg.Join); err != nil {
			return Inbound{}, fmt.Errorf("malformed join payload: %w", err)
		}
	case ActionMove:
		msg.Move = &MovePayload{}
		if err := json.Unmarshal(env.Payload, msg.Move); err != nil {
			return Inbound{}, fmt.Errorf("malformed move payload: %w", err)
		}
	case ActionChat:
		msg.Chat = &ChatPayload{}
		if err := json.Unmarshal(env.Payload, msg.Chat); err != nil {
			return Inbound{}, fmt.Errorf("malformed chat payload: %w", err)
		}
	}

	return msg, nil
}

// encode serializes an outbound envelope.
func encode(action string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", action, err)
	}
	return json.Marshal(Envelope{Action: action, Payload: raw})
}

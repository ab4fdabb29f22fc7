package presence

// Conn is the transport-side handle for a connected client. Send pushes an
// already-serialized payload without blocking and reports whether the
// connection accepted it; closed or saturated connections return false.
type Conn interface {
	Send(payload []byte) bool
}

// PlayerState is a connection's mutable presence record inside a room.
// Position starts at the origin and is updated in place on every move.
type PlayerState struct {
	Name   string
	Avatar string
	Color  string
	X      float64
	Y      float64
}

// PlayerInfo is the wire-facing snapshot entry used in player-list payloads.
type PlayerInfo struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Color  string `json:"color,omitempty"`
}

// ChatMessage is one entry in a room's history. Instances are immutable once
// appended.
type ChatMessage struct {
	Date    string `json:"date"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Color   string `json:"color,omitempty"`
}

// Session is the per-connection identity record stamped at join time.
type Session struct {
	Room   string
	Name   string
	Avatar string
}

// RoomInfo summarizes a room for introspection endpoints.
type RoomInfo struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

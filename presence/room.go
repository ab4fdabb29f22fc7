package presence

// Room groups the connections sharing one presence space: a membership map
// with a parallel join-order slice for stable snapshots, plus the room's
// chat history.
type Room struct {
	name         string
	members      map[Conn]*PlayerState
	order        []Conn
	history      []ChatMessage
	historyLimit int
}

func newRoom(name string, historyLimit int) *Room {
	return &Room{
		name:         name,
		members:      make(map[Conn]*PlayerState),
		historyLimit: historyLimit,
	}
}

// Name returns the room identifier.
func (r *Room) Name() string {
	return r.name
}

// Size returns the current member count.
func (r *Room) Size() int {
	return len(r.members)
}

// Player returns the state for a member connection, if present.
func (r *Room) Player(conn Conn) (*PlayerState, bool) {
	state, ok := r.members[conn]
	return state, ok
}

// add inserts or overwrites a member. A re-insert keeps the connection's
// original position in the enumeration order.
func (r *Room) add(conn Conn, state *PlayerState) {
	if _, exists := r.members[conn]; !exists {
		r.order = append(r.order, conn)
	}
	r.members[conn] = state
}

func (r *Room) remove(conn Conn) {
	if _, exists := r.members[conn]; !exists {
		return
	}
	delete(r.members, conn)
	for i, c := range r.order {
		if c == conn {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Players returns the member list in join order. The slice is a snapshot;
// mutating it does not affect the room.
func (r *Room) Players() []PlayerInfo {
	players := make([]PlayerInfo, 0, len(r.members))
	for _, conn := range r.order {
		state := r.members[conn]
		players = append(players, PlayerInfo{
			Name:   state.Name,
			Avatar: state.Avatar,
			Color:  state.Color,
		})
	}
	return players
}

// Conns returns the member connections in join order.
func (r *Room) Conns() []Conn {
	conns := make([]Conn, len(r.order))
	copy(conns, r.order)
	return conns
}

// AppendHistory appends a chat message, evicting the oldest entries once the
// room exceeds its history limit.
func (r *Room) AppendHistory(msg ChatMessage) {
	r.history = append(r.history, msg)
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		overflow := len(r.history) - r.historyLimit
		r.history = append(r.history[:0:0], r.history[overflow:]...)
	}
}

// History returns the retained chat messages in append order.
func (r *Room) History() []ChatMessage {
	history := make([]ChatMessage, len(r.history))
	copy(history, r.history)
	return history
}

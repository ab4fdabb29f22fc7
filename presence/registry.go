package presence

import "errors"

// ErrAlreadyJoined is returned when a connection that already belongs to a
// room attempts to join a different one. Switching rooms requires a
// disconnect first.
var ErrAlreadyJoined = errors.New("connection already joined a room")

// Registry maps room names to rooms and connections to their sessions. It
// performs no locking of its own; see the package documentation.
type Registry struct {
	rooms        map[string]*Room
	sessions     map[Conn]*Session
	historyLimit int
}

// NewRegistry creates an empty registry. historyLimit bounds each room's
// retained chat history; zero or negative means unbounded.
func NewRegistry(historyLimit int) *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		sessions:     make(map[Conn]*Session),
		historyLimit: historyLimit,
	}
}

// Join adds the connection to the named room, creating the room if this is
// its first member, and stamps the connection's session. Joining the room
// the connection is already in overwrites its player state; joining a
// different room fails with ErrAlreadyJoined.
func (g *Registry) Join(conn Conn, roomName, name, avatar, color string) (*Room, error) {
	if session, ok := g.sessions[conn]; ok && session.Room != roomName {
		return nil, ErrAlreadyJoined
	}

	room, ok := g.rooms[roomName]
	if !ok {
		room = newRoom(roomName, g.historyLimit)
		g.rooms[roomName] = room
	}

	room.add(conn, &PlayerState{
		Name:   name,
		Avatar: avatar,
		Color:  color,
	})
	g.sessions[conn] = &Session{
		Room:   roomName,
		Name:   name,
		Avatar: avatar,
	}

	return room, nil
}

// Leave removes the connection from its room and drops its session. The
// room itself is removed from the registry the moment its member count
// reaches zero. It reports the departed session and the room (nil once
// removed is still returned for inspection; check RoomRemoved). Connections
// that never joined produce ok == false.
func (g *Registry) Leave(conn Conn) (Departure, bool) {
	session, ok := g.sessions[conn]
	if !ok {
		return Departure{}, false
	}
	delete(g.sessions, conn)

	room, ok := g.rooms[session.Room]
	if !ok {
		return Departure{Session: *session}, true
	}

	room.remove(conn)
	removed := room.Size() == 0
	if removed {
		delete(g.rooms, session.Room)
	}

	return Departure{
		Session:     *session,
		Room:        room,
		RoomRemoved: removed,
	}, true
}

// Departure describes the outcome of a Leave call.
type Departure struct {
	Session     Session
	Room        *Room
	RoomRemoved bool
}

// Session returns the session stamped on a connection at join time.
func (g *Registry) Session(conn Conn) (Session, bool) {
	session, ok := g.sessions[conn]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// Room looks up a room by name.
func (g *Registry) Room(name string) (*Room, bool) {
	room, ok := g.rooms[name]
	return room, ok
}

// RoomOf resolves the room the connection belongs to, if any.
func (g *Registry) RoomOf(conn Conn) (*Room, bool) {
	session, ok := g.sessions[conn]
	if !ok {
		return nil, false
	}
	room, ok := g.rooms[session.Room]
	return room, ok
}

// Rooms summarizes every live room, for introspection.
func (g *Registry) Rooms() []RoomInfo {
	infos := make([]RoomInfo, 0, len(g.rooms))
	for name, room := range g.rooms {
		infos = append(infos, RoomInfo{Name: name, Members: room.Size()})
	}
	return infos
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	return len(g.rooms)
}

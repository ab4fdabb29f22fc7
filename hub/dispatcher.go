package hub

import (
	"fmt"
	"sync"
	"time"

	"roomhub/pkg/logger"
	"roomhub/presence"
)

// timestampFormat renders chat dates the way clients display them.
const timestampFormat = "2006-01-02 15:04:05"

// systemName identifies server-generated chat lines such as join
// announcements.
const systemName = "System"

// AvatarRemover deletes an uploaded avatar by the reference URL returned at
// upload time. Failures are logged and never surfaced to clients.
type AvatarRemover interface {
	Remove(ref string) error
}

// Dispatcher routes decoded envelopes to the join/move/chat handlers and
// connection-close events to the disconnect handler. It owns the presence
// registry; a single mutex makes each handler invocation atomic with respect
// to registry state.
type Dispatcher struct {
	mu       sync.Mutex
	registry *presence.Registry
	caster   *Broadcaster
	avatars  AvatarRemover
	log      logger.Logger
	now      func() time.Time
}

// NewDispatcher wires a dispatcher to its registry and collaborators.
// avatars may be nil when no upload storage is configured.
func NewDispatcher(registry *presence.Registry, avatars AvatarRemover, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		caster:   NewBroadcaster(log),
		avatars:  avatars,
		log:      log,
		now:      time.Now,
	}
}

// RoomInfos returns a summary of live rooms.
func (d *Dispatcher) RoomInfos() []presence.RoomInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registry.Rooms()
}

// RoomPlayers returns the player list of one room, if it exists.
func (d *Dispatcher) RoomPlayers(name string) ([]presence.PlayerInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room, ok := d.registry.Room(name)
	if !ok {
		return nil, false
	}
	return room.Players(), true
}

// HandleMessage processes one raw inbound message from a connection.
// Undecodable messages earn the sender an invalidMessage reply; unknown
// actions are silently ignored.
func (d *Dispatcher) HandleMessage(conn presence.Conn, raw []byte) {
	msg, err := DecodeInbound(raw)
	if err != nil {
		d.log.Debugf("rejecting message: %v", err)
		d.caster.SendTo(conn, ActionInvalidMessage, InvalidMessagePayload{Reason: err.Error()})
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch msg.Action {
	case ActionJoin:
		d.handleJoin(conn, msg.Join)
	case ActionMove:
		d.handleMove(conn, msg.Move)
	case ActionChat:
		d.handleChat(conn, msg.Chat)
	default:
		d.log.Debugf("ignoring unknown action %q", msg.Action)
	}
}

// HandleDisconnect runs when a connection's underlying channel closes, for
// any reason. Connections that never joined a room are a no-op.
func (d *Dispatcher) HandleDisconnect(conn presence.Conn) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dep, ok := d.registry.Leave(conn)
	if !ok {
		return
	}

	if dep.Session.Avatar != "" && d.avatars != nil {
		if err := d.avatars.Remove(dep.Session.Avatar); err != nil {
			d.log.Errorf("failed to remove avatar %s: %v", dep.Session.Avatar, err)
		}
	}

	if dep.Room == nil || dep.RoomRemoved {
		d.log.Infof("%s left, room %q removed", dep.Session.Name, dep.Session.Room)
		return
	}

	conns := dep.Room.Conns()
	d.caster.Broadcast(conns, ActionUpdatePlayers, dep.Room.Players(), Everyone)
	d.caster.Broadcast(conns, ActionRemoveCursor, RemoveCursorPayload{Name: dep.Session.Name}, Everyone)
	d.log.Infof("%s left room %q (%d remaining)", dep.Session.Name, dep.Session.Room, dep.Room.Size())
}

func (d *Dispatcher) handleJoin(conn presence.Conn, payload *JoinPayload) {
	if payload.Room == "" || payload.Name == "" {
		d.caster.SendTo(conn, ActionInvalidMessage, InvalidMessagePayload{Reason: "join requires room and name"})
		return
	}

	room, err := d.registry.Join(conn, payload.Room, payload.Name, payload.Avatar, payload.Color)
	if err != nil {
		d.log.Debugf("join rejected for %s: %v", payload.Name, err)
		d.caster.SendTo(conn, ActionInvalidMessage, InvalidMessagePayload{Reason: err.Error()})
		return
	}

	conns := room.Conns()
	d.caster.Broadcast(conns, ActionUpdatePlayers, room.Players(), Everyone)
	d.caster.Broadcast(conns, ActionChat, presence.ChatMessage{
		Date:    d.now().Format(timestampFormat),
		Name:    systemName,
		Message: fmt.Sprintf("%s joined the room", payload.Name),
	}, Excluding(conn))

	for _, msg := range room.History() {
		d.caster.SendTo(conn, ActionChat, msg)
	}

	d.log.Infof("%s joined room %q (%d members)", payload.Name, payload.Room, room.Size())
}

func (d *Dispatcher) handleMove(conn presence.Conn, payload *MovePayload) {
	room, ok := d.registry.RoomOf(conn)
	if !ok {
		return
	}
	state, ok := room.Player(conn)
	if !ok {
		return
	}

	state.X = payload.X
	state.Y = payload.Y

	d.caster.Broadcast(room.Conns(), ActionMove, MoveBroadcast{
		Name:   state.Name,
		X:      state.X,
		Y:      state.Y,
		Avatar: state.Avatar,
		Color:  state.Color,
	}, Excluding(conn))
}

func (d *Dispatcher) handleChat(conn presence.Conn, payload *ChatPayload) {
	// The stamped session is the source of truth for identity; room and
	// name in the payload are ignored.
	session, ok := d.registry.Session(conn)
	if !ok {
		return
	}
	room, ok := d.registry.Room(session.Room)
	if !ok {
		return
	}

	msg := presence.ChatMessage{
		Date:    d.now().Format(timestampFormat),
		Name:    session.Name,
		Message: payload.Message,
	}
	if state, ok := room.Player(conn); ok {
		msg.Color = state.Color
	}

	room.AppendHistory(msg)
	d.caster.Broadcast(room.Conns(), ActionChat, msg, Everyone)
}

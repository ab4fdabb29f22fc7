package hub

import (
	"roomhub/pkg/logger"
	"roomhub/presence"
)

// Broadcaster is the fan-out primitive shared by every handler: it
// serializes an envelope once and attempts delivery to each selected
// connection. Connections that are closed or saturated are skipped silently;
// a failed recipient never aborts delivery to the rest.
type Broadcaster struct {
	log logger.Logger
}

// NewBroadcaster creates a broadcaster that reports serialization failures
// to the given logger.
func NewBroadcaster(log logger.Logger) *Broadcaster {
	return &Broadcaster{log: log}
}

// Everyone selects all members.
func Everyone(presence.Conn) bool {
	return true
}

// Excluding selects all members except the given connection, typically the
// sender of the event being fanned out.
func Excluding(sender presence.Conn) func(presence.Conn) bool {
	return func(conn presence.Conn) bool {
		return conn != sender
	}
}

// Broadcast serializes one envelope and pushes it to every connection the
// predicate selects.
func (b *Broadcaster) Broadcast(conns []presence.Conn, action string, payload interface{}, include func(presence.Conn) bool) {
	data, err := encode(action, payload)
	if err != nil {
		b.log.Errorf("broadcast %s: %v", action, err)
		return
	}

	for _, conn := range conns {
		if include != nil && !include(conn) {
			continue
		}
		if !conn.Send(data) {
			b.log.Debugf("broadcast %s: recipient not accepting, skipped", action)
		}
	}
}

// SendTo delivers a single envelope to one connection.
func (b *Broadcaster) SendTo(conn presence.Conn, action string, payload interface{}) {
	data, err := encode(action, payload)
	if err != nil {
		b.log.Errorf("send %s: %v", action, err)
		return
	}
	if !conn.Send(data) {
		b.log.Debugf("send %s: recipient not accepting, skipped", action)
	}
}

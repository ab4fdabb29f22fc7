// Package hub implements the wire protocol of the presence server: decoding
// inbound envelopes, the four event handlers (join, move, chat, disconnect),
// and the fan-out primitive that delivers resulting envelopes to room
// members.
//
// Message Protocol:
//
// Every message in either direction is a JSON envelope of the form
// {action, payload}. Inbound actions are join, move and chat; outbound
// actions are updatePlayers, move, chat, removeCursor and invalidMessage.
// Payloads are decoded exactly once, at the dispatch boundary, into typed
// structs.
//
// Concurrency:
//
// The Dispatcher owns the presence registry and serializes every handler
// invocation behind a single mutex, so each inbound event mutates registry
// state atomically. Outgoing sends are non-blocking channel pushes and never
// perform network I/O under the lock.
//
// Failure policy:
//
// Malformed envelopes earn the offending connection an invalidMessage reply
// and nothing else. Unknown actions are ignored. Events referencing missing
// rooms or players are silent no-ops. A recipient that cannot accept a
// payload is skipped without aborting delivery to the rest of the room.
package hub

// Package presence holds the server's only mutable state: the room registry,
// per-room membership, and per-connection session records.
//
// The package implements:
//   - Lazy room creation on first join and synchronous removal when empty
//   - Membership tracking with stable join-order snapshots
//   - Bounded, append-only chat history per room
//   - Session records (room, name, avatar) keyed by connection
//
// Ownership:
//
// A Registry is a plain data structure with no internal locking. It is owned
// by exactly one dispatcher, which guards every handler invocation with its
// own mutex. This keeps each join/move/chat/disconnect atomic with respect to
// registry state without sprinkling locks through the data model.
//
// Invariants:
//
// A room name is present in the registry iff the room has at least one
// member, and every connection belongs to at most one room at a time. Both
// are enforced here rather than in the protocol layer.
package presence

// Package websocket provides the WebSocket transport for the presence hub.
//
// The package implements:
//   - HTTP upgrade handling for the /ws endpoint
//   - A per-connection read pump feeding raw envelopes to the dispatcher
//   - A per-connection write pump draining a buffered send queue
//   - Keepalive pings and connection lifecycle cleanup
//
// Connection Lifecycle:
//
// 1. Client upgrades at /ws
// 2. Read and write pumps start in their own goroutines
// 3. Every text frame is handed to the dispatcher as one inbound envelope
// 4. When the read pump observes a close (clean or not), the connection is
//    marked closed, the send queue is torn down, and the dispatcher's
//    disconnect handler runs exactly once
//
// Backpressure:
//
// Send never blocks. A connection whose buffered queue is full simply misses
// the payload; the protocol offers best-effort delivery only, so nothing is
// queued beyond the channel buffer and nothing is retried.
package websocket

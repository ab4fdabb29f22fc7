// Package api provides the HTTP surface of the presence hub.
//
// A single gorilla/mux router serves everything on one port:
//   - GET  /health            liveness probe
//   - GET  /api/rooms         live rooms with member counts
//   - GET  /api/rooms/{room}  player list of one room
//   - POST /api/avatars       multipart avatar upload, returns {url}
//   - GET  /ws                WebSocket upgrade for the presence protocol
//   - GET  /*                 static assets (the client app)
//
// The API layer holds no state of its own. Room data is read through a
// narrow directory interface backed by the dispatcher, and uploads go
// straight to the avatar store.
package api

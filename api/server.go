package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"roomhub/avatar"
	"roomhub/pkg/logger"
	"roomhub/presence"
)

// maxUploadBytes caps the multipart form size of one avatar upload.
const maxUploadBytes = 5 << 20

// RoomDirectory is the read-only view of live rooms the REST endpoints
// serve. The hub dispatcher satisfies this.
type RoomDirectory interface {
	RoomInfos() []presence.RoomInfo
	RoomPlayers(name string) ([]presence.PlayerInfo, bool)
}

// AvatarStore persists one uploaded avatar and returns its reference URL.
type AvatarStore interface {
	Save(src io.Reader, originalName string) (string, error)
}

// Server is the HTTP front of the hub: REST introspection, avatar upload,
// the WebSocket endpoint, and static assets, all behind one router.
type Server struct {
	rooms     RoomDirectory
	avatars   AvatarStore
	wsHandler http.HandlerFunc
	router    *mux.Router
	log       logger.Logger
}

// NewServer wires the router. wsHandler handles upgrade requests at /ws;
// staticDir is served for every unmatched path.
func NewServer(rooms RoomDirectory, avatars AvatarStore, wsHandler http.HandlerFunc, staticDir string, log logger.Logger) *Server {
	s := &Server{
		rooms:     rooms,
		avatars:   avatars,
		wsHandler: wsHandler,
		router:    mux.NewRouter(),
		log:       log,
	}

	s.setupRoutes(staticDir)
	return s
}

func (s *Server) setupRoutes(staticDir string) {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{room}", s.handleGetRoom).Methods("GET")
	api.HandleFunc("/avatars", s.handleUploadAvatar).Methods("POST")

	s.router.HandleFunc("/ws", s.wsHandler)

	// Everything else is the client app.
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	infos := s.rooms.RoomInfos()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	respondJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["room"]

	players, ok := s.rooms.RoomPlayers(name)
	if !ok {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name":    name,
		"players": players,
	})
}

func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing avatar file field")
		return
	}
	defer file.Close()

	url, err := s.avatars.Save(file, header.Filename)
	if err != nil {
		if errors.Is(err, avatar.ErrUnsupportedType) {
			respondError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		s.log.Errorf("avatar upload failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	s.log.Infof("stored avatar %s (%s)", url, header.Filename)
	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

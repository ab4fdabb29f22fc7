package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"roomhub/avatar"
	"roomhub/hub"
	"roomhub/pkg/logger"
	"roomhub/presence"
	ws "roomhub/transport/websocket"
)

// mockDirectory implements RoomDirectory for handler tests.
type mockDirectory struct {
	RoomInfosFunc   func() []presence.RoomInfo
	RoomPlayersFunc func(name string) ([]presence.PlayerInfo, bool)
}

func (m *mockDirectory) RoomInfos() []presence.RoomInfo {
	if m.RoomInfosFunc != nil {
		return m.RoomInfosFunc()
	}
	return nil
}

func (m *mockDirectory) RoomPlayers(name string) ([]presence.PlayerInfo, bool) {
	if m.RoomPlayersFunc != nil {
		return m.RoomPlayersFunc(name)
	}
	return nil, false
}

func newTestServer(t *testing.T, rooms RoomDirectory) (*Server, string) {
	t.Helper()

	staticDir := t.TempDir()
	store, err := avatar.NewStore(filepath.Join(staticDir, "uploads"), "/uploads", logger.NewLogger("error"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	noWS := func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket in this test", http.StatusNotImplemented)
	}
	return NewServer(rooms, store, noWS, staticDir, logger.NewLogger("error")), staticDir
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &mockDirectory{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestListRoomsSorted(t *testing.T) {
	server, _ := newTestServer(t, &mockDirectory{
		RoomInfosFunc: func() []presence.RoomInfo {
			return []presence.RoomInfo{
				{Name: "zebra", Members: 1},
				{Name: "alpha", Members: 3},
			}
		},
	})

	req := httptest.NewRequest("GET", "/api/rooms", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var infos []presence.RoomInfo
	if err := json.NewDecoder(w.Body).Decode(&infos); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "alpha" || infos[1].Name != "zebra" {
		t.Errorf("rooms = %+v, want sorted [alpha zebra]", infos)
	}
}

func TestGetRoom(t *testing.T) {
	server, _ := newTestServer(t, &mockDirectory{
		RoomPlayersFunc: func(name string) ([]presence.PlayerInfo, bool) {
			if name != "lobby" {
				return nil, false
			}
			return []presence.PlayerInfo{{Name: "Alice"}, {Name: "Bob"}}, true
		},
	})

	req := httptest.NewRequest("GET", "/api/rooms/lobby", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Name    string                `json:"name"`
		Players []presence.PlayerInfo `json:"players"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Name != "lobby" || len(body.Players) != 2 {
		t.Errorf("body = %+v", body)
	}

	// Unknown room is a 404.
	req = httptest.NewRequest("GET", "/api/rooms/nowhere", nil)
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()
	return &buf, writer.FormDataContentType()
}

func TestUploadAvatar(t *testing.T) {
	server, staticDir := newTestServer(t, &mockDirectory{})

	body, contentType := multipartBody(t, "avatar", "me.png", "png bytes")
	req := httptest.NewRequest("POST", "/api/avatars", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	url := resp["url"]
	if !strings.HasPrefix(url, "/uploads/") {
		t.Fatalf("url = %q, want /uploads/ prefix", url)
	}

	// The reference resolves to a real file under the static dir.
	stored := filepath.Join(staticDir, "uploads", filepath.Base(url))
	data, err := os.ReadFile(stored)
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "png bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestUploadAvatarErrors(t *testing.T) {
	server, _ := newTestServer(t, &mockDirectory{})

	tests := []struct {
		name       string
		field      string
		filename   string
		wantStatus int
	}{
		{"wrong field name", "file", "me.png", http.StatusBadRequest},
		{"unsupported type", "avatar", "script.sh", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.field, tt.filename, "x")
			req := httptest.NewRequest("POST", "/api/avatars", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}

	t.Run("not multipart at all", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/avatars", strings.NewReader("plain"))
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestStaticFallback(t *testing.T) {
	server, staticDir := newTestServer(t, &mockDirectory{})

	if err := os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>hub</html>"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	req := httptest.NewRequest("GET", "/index.html", nil)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "hub") {
		t.Errorf("body = %q", w.Body.String())
	}
}

// TestFullStackOverWS exercises the whole wiring: mux route, upgrade,
// dispatcher, registry, REST introspection.
func TestFullStackOverWS(t *testing.T) {
	staticDir := t.TempDir()
	log := logger.NewLogger("error")

	store, err := avatar.NewStore(filepath.Join(staticDir, "uploads"), "/uploads", log)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	dispatcher := hub.NewDispatcher(presence.NewRegistry(0), store, log)
	wsServer := ws.NewServer(dispatcher, 4096, log)
	server := NewServer(dispatcher, store, wsServer.ServeWS, staticDir, log)

	ts := httptest.NewServer(server)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload, _ := json.Marshal(hub.JoinPayload{Room: "lobby", Name: "Alice"})
	msg, _ := json.Marshal(hub.Envelope{Action: hub.ActionJoin, Payload: payload})
	if err := conn.WriteMessage(gws.TextMessage, msg); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err != nil {
		t.Fatalf("read: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/rooms")
	if err != nil {
		t.Fatalf("GET /api/rooms: %v", err)
	}
	defer resp.Body.Close()

	var infos []presence.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "lobby" || infos[0].Members != 1 {
		t.Errorf("rooms = %+v, want lobby with 1 member", infos)
	}
}

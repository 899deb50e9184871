package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/clubroom-server/internal/auth"
	"github.com/vovakirdan/clubroom-server/internal/config"
	"github.com/vovakirdan/clubroom-server/internal/core"
	"github.com/vovakirdan/clubroom-server/internal/service/rooms"
	"github.com/vovakirdan/clubroom-server/internal/store"
	"github.com/vovakirdan/clubroom-server/internal/store/sqlite"
)

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

type testEnv struct {
	ts    *httptest.Server
	auth  *auth.Service
	rooms *rooms.Service
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()

	st := createTestStore(t)
	authService := createTestAuthService(t, st, cfg.JWTSecret)

	disabledLogger := zerolog.New(nil).Level(zerolog.Disabled)
	hub := core.NewHub(&disabledLogger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	svc := rooms.New(hub, st, &disabledLogger)
	server := NewServer(svc, authService, st, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)

	// Closing the server waits for handlers, which need the hub to detach.
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return &testEnv{ts: ts, auth: authService, rooms: svc}
}

func (e *testEnv) register(t *testing.T, name string) string {
	t.Helper()
	token, err := e.auth.Register(context.Background(), name+"@example.org", name, "Member")
	if err != nil {
		t.Fatalf("failed to register %s: %v", name, err)
	}
	return token
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) createRoom(t *testing.T, token, title string) rooms.Info {
	t.Helper()
	var info rooms.Info
	if status := e.do(t, http.MethodPost, "/api/rooms", token, CreateRoomRequest{Title: title}, &info); status != http.StatusCreated {
		t.Fatalf("create room: status %d", status)
	}
	return info
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (e *testEnv) dial(t *testing.T, ctx context.Context, roomID, kind, token string) *websocket.Conn {
	t.Helper()
	url := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws/rooms/" + roomID + "/" + kind + "?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", kind, err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) wsFrame {
	t.Helper()
	var f wsFrame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// expectFrame reads until a frame with the given event arrives.
func expectFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, v any) {
	t.Helper()
	for {
		f := readFrame(t, ctx, conn)
		if f.Event != event {
			continue
		}
		if v != nil {
			if err := json.Unmarshal(f.Data, v); err != nil {
				t.Fatalf("decode %s: %v", event, err)
			}
		}
		return
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, data any) {
	t.Helper()
	msg := map[string]any{"event": event}
	if data != nil {
		msg["data"] = data
	}
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("send %s: %v", event, err)
	}
}

// expectClose reads until the server closes the connection and returns the status.
func expectClose(t *testing.T, ctx context.Context, conn *websocket.Conn) websocket.StatusCode {
	t.Helper()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return websocket.CloseStatus(err)
		}
	}
}

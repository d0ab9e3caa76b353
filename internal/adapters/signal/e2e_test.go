package signal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	lobbyhttp "github.com/dkeye/Lobby/internal/adapters/http"
	"github.com/dkeye/Lobby/internal/app"
	"github.com/dkeye/Lobby/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wsClient struct {
	conn *websocket.Conn
}

func dialLobby(t *testing.T, url string) *wsClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &wsClient{conn: conn}
}

func (c *wsClient) send(t *testing.T, raw string) {
	t.Helper()
	require.NoError(t, c.conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func (c *wsClient) recv(t *testing.T) map[string]any {
	t.Helper()
	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := c.conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

// expect reads frames until one of the wanted type arrives, skipping
// listing refreshes that race with directed messages.
func (c *wsClient) expect(t *testing.T, typ string) map[string]any {
	t.Helper()
	for i := 0; i < 8; i++ {
		m := c.recv(t)
		if m["type"] == typ {
			return m
		}
	}
	t.Fatalf("frame of type %q never arrived", typ)
	return nil
}

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Mode:           "test",
		ReadLimit:      8192,
		PingPeriod:     30 * time.Second,
		SendBuffer:     32,
		Secret:         "test-secret",
		RoomCodeBytes:  4,
		CreateLimit:    100,
		CreateInterval: time.Minute,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(lobbyhttp.SetupRouter(ctx, cfg, app.NewLobby(cfg.RoomCodeBytes)))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/lobby"
}

func TestLobbySession(t *testing.T) {
	url := startServer(t)

	a := dialLobby(t, url)
	b := dialLobby(t, url)

	// both connections greet with the current (empty) listing
	hello := a.expect(t, "rooms")
	assert.Empty(t, hello["rooms"])
	_ = b.expect(t, "rooms")

	a.send(t, `{"type":"create_room"}`)
	res := a.expect(t, "create_room_res")
	require.Equal(t, true, res["ok"])
	code := res["code"].(string)
	assert.Len(t, code, 8)

	// b, still in the lobby, sees the new open room
	listing := b.expect(t, "rooms")
	rooms := listing["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, code, rooms[0].(map[string]any)["code"])

	b.send(t, `{"type":"join_room","code":"`+code+`"}`)
	res = b.expect(t, "join_room_res")
	require.Equal(t, true, res["ok"])
	_ = a.expect(t, "opponent_connect")

	// paired clients relay payloads without the server touching them
	b.send(t, `{"type":"opponent","data":"ping"}`)
	relayed := a.expect(t, "opponent")
	assert.Equal(t, "ping", relayed["data"])

	a.send(t, `{"type":"opponent","data":{"move":"e7e5"}}`)
	relayed = b.expect(t, "opponent")
	assert.Equal(t, map[string]any{"move": "e7e5"}, relayed["data"])

	// a drops; b is told and lands back in an empty lobby
	require.NoError(t, a.conn.Close())
	_ = b.expect(t, "opponent_disconnect")
	listing = b.expect(t, "rooms")
	assert.Empty(t, listing["rooms"])

	// b can immediately open a fresh room
	b.send(t, `{"type":"create_room"}`)
	res = b.expect(t, "create_room_res")
	assert.Equal(t, true, res["ok"])
	assert.NotEqual(t, code, res["code"])
}

func getJSON(t *testing.T, url string) map[string]any {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return m
}

func TestRESTEndpoints(t *testing.T) {
	url := startServer(t)
	base := "http" + strings.TrimPrefix(strings.TrimSuffix(url, "/api/ws/lobby"), "ws")

	a := dialLobby(t, url)
	_ = a.expect(t, "rooms")
	a.send(t, `{"type":"create_room"}`)
	res := a.expect(t, "create_room_res")
	require.Equal(t, true, res["ok"])

	stats := getJSON(t, base+"/api/stats")
	assert.Equal(t, float64(1), stats["connections"])
	assert.Equal(t, float64(1), stats["rooms"])

	listing := getJSON(t, base+"/api/rooms")
	rooms := listing["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, res["code"], rooms[0].(map[string]any)["code"])
}

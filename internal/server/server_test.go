package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/superspike/spike-server-go/internal/config"
	"github.com/superspike/spike-server-go/internal/game"
	"github.com/superspike/spike-server-go/internal/game/rules"
)

type testEnv struct {
	addr  string
	match *game.Match
	done  chan error
}

func startServer(t *testing.T) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cfg := config.Default()

	match, err := game.NewMatch(cfg, logger)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(cfg.Server, match, logger)
	env := &testEnv{addr: lis.Addr().String(), match: match, done: make(chan error, 1)}
	go func() { env.done <- srv.Serve(ctx, lis) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-env.done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
		_ = match.Close()
	})
	return env
}

func (env *testEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+env.addr+"/ws"+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// nextText skips snapshot frames until a JSON reply arrives.
func nextText(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.TextMessage {
			continue
		}
		var msg ServerMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	}
}

// waitForPhase reads snapshot frames until one reports phase.
func waitForPhase(t *testing.T, conn *websocket.Conn, phase string) *game.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if kind != websocket.BinaryMessage {
			continue
		}
		snap, err := game.DecodeSnapshot(data)
		require.NoError(t, err)
		if snap.Phase == phase {
			return snap
		}
	}
}

func TestHealth(t *testing.T) {
	env := startServer(t)

	resp, err := http.Get("http://" + env.addr + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, env.match.ID(), body.MatchID)
	assert.Equal(t, "PRE_SERVE", body.Phase)
}

func TestSnapshotsAreBroadcast(t *testing.T) {
	env := startServer(t)
	conn := env.dial(t, "")

	snap := waitForPhase(t, conn, "PRE_SERVE")
	assert.Equal(t, env.match.ID(), snap.MatchID)
	assert.Len(t, snap.Players, 2)
}

func TestInputStartsCharge(t *testing.T) {
	env := startServer(t)
	conn := env.dial(t, "?team=1")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgTypeInput, Action: "spike", Pressed: true}))
	snap := waitForPhase(t, conn, "TOSS_CHARGING")
	assert.True(t, snap.Players[0].Charging)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgTypeInput, Action: "spike", Pressed: false}))
	waitForPhase(t, conn, "TOSSED")
	assert.Equal(t, rules.Team1, env.match.Ball().LastTeam())
}

func TestSpectatorInputRejected(t *testing.T) {
	env := startServer(t)
	conn := env.dial(t, "")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgTypeInput, Action: "jump", Pressed: true}))
	msg := nextText(t, conn)
	assert.Equal(t, MsgTypeError, msg.Type)
	assert.Contains(t, msg.Error, "spectators")
}

func TestBadMessages(t *testing.T) {
	env := startServer(t)
	conn := env.dial(t, "?team=2")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "malformed message", nextText(t, conn).Error)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgTypeInput, Action: "dive"}))
	assert.Contains(t, nextText(t, conn).Error, "unknown action")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "teleport"}))
	assert.Contains(t, nextText(t, conn).Error, "unknown message type")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MsgTypePing}))
	assert.Equal(t, MsgTypePong, nextText(t, conn).Type)
}

func TestInvalidTeamRejected(t *testing.T) {
	env := startServer(t)
	_, resp, err := websocket.DefaultDialer.Dial("ws://"+env.addr+"/ws?team=7", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerWithoutServeRejectsWebsocket(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cfg := config.Default()
	match, err := game.NewMatch(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = match.Close() })

	ts := httptest.NewServer(New(cfg.Server, match, logger).Handler())
	t.Cleanup(ts.Close)

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws?team=1", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestParseTeam(t *testing.T) {
	team, err := parseTeam("")
	require.NoError(t, err)
	assert.False(t, team.Valid())

	team, err = parseTeam("2")
	require.NoError(t, err)
	assert.Equal(t, rules.Team2, team)

	_, err = parseTeam("x")
	assert.Error(t, err)
}

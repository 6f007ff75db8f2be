package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/superspike/spike-server-go/internal/game"
	"github.com/superspike/spike-server-go/internal/game/rules"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be less than pongWait
	maxMessageSize = 4096
)

// Message types on the text channel.
const (
	MsgTypeInput = "input"
	MsgTypePing  = "ping"
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

// ClientMessage is a JSON envelope sent by a client.
type ClientMessage struct {
	Type    string  `json:"type"`
	Action  string  `json:"action,omitempty"`
	Pressed bool    `json:"pressed,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
}

// ServerMessage is a JSON reply. Snapshots go out as binary msgpack frames
// instead.
type ServerMessage struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte        // snapshot frames, closed by the hub
	replies chan ServerMessage // never closed
	team    rules.Team
	remote  string
	logger  *zap.Logger
}

func (c *client) readPump(ctx context.Context, h *hub, match *game.Match) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-ctx.Done():
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(ServerMessage{Type: MsgTypeError, Error: "malformed message"})
			continue
		}
		c.handle(msg, match)
	}
}

func (c *client) handle(msg ClientMessage, match *game.Match) {
	switch msg.Type {
	case MsgTypePing:
		c.reply(ServerMessage{Type: MsgTypePong})
	case MsgTypeInput:
		if !c.team.Valid() {
			c.reply(ServerMessage{Type: MsgTypeError, Error: "spectators cannot send input"})
			return
		}
		err := match.ApplyInput(game.InputEvent{
			Team:    c.team,
			Action:  game.Action(msg.Action),
			Pressed: msg.Pressed,
			X:       msg.X,
			Y:       msg.Y,
		})
		if err != nil {
			c.logger.Debug("input rejected", zap.Error(err))
			c.reply(ServerMessage{Type: MsgTypeError, Error: err.Error()})
		}
	default:
		c.reply(ServerMessage{Type: MsgTypeError, Error: "unknown message type " + msg.Type})
	}
}

func (c *client) reply(msg ServerMessage) {
	select {
	case c.replies <- msg:
	default:
		c.logger.Debug("reply dropped", zap.String("type", msg.Type))
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case msg := <-c.replies:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

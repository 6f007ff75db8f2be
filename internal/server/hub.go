package server

import (
	"context"

	"go.uber.org/zap"
)

// hub fans snapshot frames out to every connected client. A client that
// cannot keep up is dropped rather than stalling the broadcast.
type hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	logger     *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *client),
		unregister: make(chan *client),
		logger:     logger,
	}
}

func (h *hub) run(ctx context.Context) {
	defer func() {
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info("client registered",
				zap.String("remote", c.remote),
				zap.Stringer("team", c.team),
				zap.Int("clients", len(h.clients)),
			)

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("client unregistered",
					zap.String("remote", c.remote),
					zap.Int("clients", len(h.clients)),
				)
			}

		case frame := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					h.logger.Warn("dropping slow client", zap.String("remote", c.remote))
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// publish queues a frame for broadcast, dropping it when the hub is behind.
func (h *hub) publish(frame []byte) bool {
	select {
	case h.broadcast <- frame:
		return true
	default:
		return false
	}
}

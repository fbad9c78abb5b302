// FilePath: server/monitor/internal/stream/stream.socket.go
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	nuts "github.com/vaudience/go-nuts"
)

const socketWriteWait = 200 * time.Millisecond

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SocketHub fans frames out to websocket clients at the default rate.
type SocketHub struct {
	b *Broadcaster

	mu    sync.Mutex
	conns map[*websocket.Conn]string
}

func NewSocketHub(b *Broadcaster) *SocketHub {
	return &SocketHub{b: b, conns: make(map[*websocket.Conn]string)}
}

func (h *SocketHub) add(c *websocket.Conn) {
	id := h.b.register(TransportWebSocket)
	h.mu.Lock()
	h.conns[c] = id
	h.mu.Unlock()
}

func (h *SocketHub) remove(c *websocket.Conn) {
	h.mu.Lock()
	id, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()
	if ok {
		h.b.unregister(id)
	}
}

func (h *SocketHub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	return clients
}

// Len counts connected websocket clients.
func (h *SocketHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *SocketHub) broadcast(payload []byte) {
	for _, c := range h.snapshot() {
		_ = c.SetWriteDeadline(time.Now().Add(socketWriteWait))
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			_ = c.Close()
			h.remove(c)
			continue
		}
		h.b.metrics.FrameSent(TransportWebSocket)
	}
}

// Run broadcasts a frame per interval until ctx ends or the broadcaster
// closes, then disconnects every client.
func (h *SocketHub) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.b.DefaultRate()))
	defer ticker.Stop()
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.b.done:
			return nil
		case <-ticker.C:
			if h.Len() == 0 {
				continue
			}
			payload, err := Encode(h.b.Frame())
			if err != nil {
				nuts.L.Errorf("[Stream] Encoding frame failed: %v", err)
				continue
			}
			h.broadcast(payload)
		}
	}
}

func (h *SocketHub) closeAll() {
	for _, c := range h.snapshot() {
		_ = c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(socketWriteWait))
		_ = c.Close()
		h.remove(c)
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client closes it. Incoming messages are discarded.
func (h *SocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		nuts.L.Warnf("[Stream] websocket upgrade failed: %v", err)
		return
	}
	h.add(conn)
	defer func() {
		h.remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

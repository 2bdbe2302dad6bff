package httpserver

import (
	"sync"

	"github.com/OliveiraNt/kafka-lens/internal/domain"
	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Frame types pushed to WebSocket clients.
const (
	FrameRecords = "records"
	FrameReset   = "reset"
	FrameStatus  = "status"
)

const clientSendBuffer = 64

// Frame is one WebSocket message.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type wsClient struct {
	id   string
	send chan []byte
}

// Hub fans buffer and consumer notifications out to the connected WebSocket clients. It
// implements buffer.Listener. A client that cannot keep up is disconnected instead of
// slowing down the drain.
type Hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	status  domain.ConsumerStatus
	closed  bool
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		status:  domain.ConsumerStatus{State: domain.StateStopped},
	}
}

// OnRecords broadcasts a drained batch.
func (h *Hub) OnRecords(batch []domain.Record) {
	h.broadcast(Frame{Type: FrameRecords, Data: batch})
}

// OnReset tells clients to clear their view.
func (h *Hub) OnReset() {
	h.broadcast(Frame{Type: FrameReset})
}

// OnStatus records st as the latest consumer status and broadcasts it.
func (h *Hub) OnStatus(st domain.ConsumerStatus) {
	b, ok := encodeFrame(Frame{Type: FrameStatus, Data: st})
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = st
	if ok {
		h.sendLocked(b)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register adds a client seeded with the latest status and snapshot. It returns nil once
// the hub is closed.
func (h *Hub) register(snapshot []domain.Record) *wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}

	c := &wsClient{id: uuid.NewString(), send: make(chan []byte, clientSendBuffer)}
	if b, ok := encodeFrame(Frame{Type: FrameStatus, Data: h.status}); ok {
		c.send <- b
	}
	if len(snapshot) > 0 {
		if b, ok := encodeFrame(Frame{Type: FrameRecords, Data: snapshot}); ok {
			c.send <- b
		}
	}
	h.clients[c] = struct{}{}
	utils.Logger.Info("websocket client connected", "client", c.id, "total_clients", len(h.clients))
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		utils.Logger.Info("websocket client disconnected", "client", c.id, "total_clients", len(h.clients))
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(f Frame) {
	b, ok := encodeFrame(f)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(b)
}

func (h *Hub) sendLocked(b []byte) {
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			delete(h.clients, c)
			close(c.send)
			utils.Logger.Warn("websocket client too slow, disconnecting", "client", c.id)
		}
	}
}

func encodeFrame(f Frame) ([]byte, bool) {
	b, err := json.Marshal(f)
	if err != nil {
		utils.Logger.Error("encode websocket frame failed", "type", f.Type, "err", err)
		return nil, false
	}
	return b, true
}

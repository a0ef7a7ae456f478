package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shandianxiao218/fly-cline/internal/logging"
	"github.com/shandianxiao218/fly-cline/internal/observability"
	"github.com/shandianxiao218/fly-cline/model"
)

const (
	writeTimeout = 5 * time.Second

	// clientBuffer bounds per-client backlog; a client that cannot keep
	// up with the tick rate is dropped instead of stalling the loop.
	clientBuffer = 16
)

// StreamFrame is one tick of the visibility stream: the aircraft state at
// the frame epoch and the per-satellite outcomes. Satellites whose
// evaluation failed appear in Errors instead of Results.
type StreamFrame struct {
	Time     time.Time                `json:"time"`
	Aircraft model.AircraftState      `json:"aircraft"`
	Results  []model.VisibilityResult `json:"results"`
	Errors   map[string]string        `json:"errors,omitempty"`
}

// StreamHub fans visibility frames out to connected WebSocket clients.
type StreamHub struct {
	log      logging.Logger
	metrics  *observability.Collector
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan StreamFrame
}

// NewStreamHub constructs a hub. A nil logger or collector is allowed.
func NewStreamHub(log logging.Logger, metrics *observability.Collector) *StreamHub {
	if log == nil {
		log = logging.Noop()
	}
	return &StreamHub{
		log:     log,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

// HandleStream upgrades the request and serves frames until the client
// disconnects.
func (h *StreamHub) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), h.log)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.String("error", err.Error()))
		return
	}

	client := &streamClient{conn: conn, send: make(chan StreamFrame, clientBuffer)}
	h.register(client)
	log.Info(ctx, "stream client connected", logging.String("remote", conn.RemoteAddr().String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain inbound messages so pings and close frames are handled.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case frame, ok := <-client.send:
			if !ok {
				_ = conn.Close()
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(frame); err != nil {
				log.Info(ctx, "stream client write failed", logging.String("error", err.Error()))
				h.unregister(client)
				_ = conn.Close()
				return
			}
		case <-done:
			h.unregister(client)
			_ = conn.Close()
			log.Info(ctx, "stream client disconnected")
			return
		}
	}
}

// Broadcast queues a frame to every connected client. Clients with a full
// backlog are dropped.
func (h *StreamHub) Broadcast(frame StreamFrame) {
	h.mu.Lock()
	var stalled []*streamClient
	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			stalled = append(stalled, client)
		}
	}
	for _, client := range stalled {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamClients.Set(float64(n))
	}
}

// Clients reports the number of connected stream clients.
func (h *StreamHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *StreamHub) register(client *streamClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamClients.Set(float64(n))
	}
}

func (h *StreamHub) unregister(client *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.StreamClients.Set(float64(n))
	}
}

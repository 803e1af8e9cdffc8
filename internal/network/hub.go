package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ghostguild/ghg-server/internal/engine"
	"github.com/ghostguild/ghg-server/internal/events"
	"github.com/ghostguild/ghg-server/internal/guild"
	"github.com/ghostguild/ghg-server/internal/platform/logger"
	"github.com/ghostguild/ghg-server/internal/platform/metrics"
)

// PollInterval is how often the hub checks the event log for new events.
const PollInterval = 200 * time.Millisecond

// hubReader names the hub's cursor in the event log.
const hubReader = "ws-hub"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HubOptions sizes the hub's channels and the per-client rate limit.
type HubOptions struct {
	BroadcastBuffer      int
	ClientSendBuffer     int
	MaxMessagesPerSecond int
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex

	engine  *engine.Engine
	guild   *guild.Service
	userID  string
	opts    HubOptions
	logger  *logger.Logger
	metrics *metrics.Collector
}

// NewHub initializes a new WebSocket Hub that routes client commands to
// the engine and the guild service of userID.
func NewHub(eng *engine.Engine, svc *guild.Service, userID string, log *logger.Logger, m *metrics.Collector, opts HubOptions) *Hub {
	if opts.ClientSendBuffer <= 0 {
		opts.ClientSendBuffer = 64
	}
	if opts.MaxMessagesPerSecond <= 0 {
		opts.MaxMessagesPerSecond = 20
	}
	if m == nil {
		m = metrics.Get()
	}
	return &Hub{
		broadcast:  make(chan []byte, opts.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		engine:     eng,
		guild:      svc,
		userID:     userID,
		opts:       opts,
		logger:     log,
		metrics:    m,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket Hub shutting down.")
			return nil
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer.
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent serializes a GameEvent and queues it for every client.
func (h *Hub) BroadcastEvent(ctx context.Context, event events.GameEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to serialize GameEvent for WebSocket broadcast: " + err.Error())
		return
	}
	select {
	case h.broadcast <- payload:
	case <-ctx.Done():
	}
}

// PollEvents tails the event log and pushes new events to the Hub until
// ctx is done. The hub never blocks the engine's dispatch loop.
func (h *Hub) PollEvents(ctx context.Context, eventLog *events.EventLog) error {
	poll := time.NewTicker(PollInterval)
	defer poll.Stop()

	lastSeq := eventLog.Len()
	eventLog.Ack(hubReader, lastSeq)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-poll.C:
			for _, event := range eventLog.Since(lastSeq) {
				h.BroadcastEvent(ctx, event)
				lastSeq = event.Seq
			}
			eventLog.Ack(hubReader, lastSeq)
		}
	}
}

// ServeWS upgrades the request and attaches a new client to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Warn("WebSocket upgrade failed: " + err.Error())
		return
	}
	client := NewClient(h, conn)
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}

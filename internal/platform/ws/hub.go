// Package ws pushes ledger change events to dashboard clients over
// WebSockets. Clients subscribe to topics and receive every event broadcast
// to those topics.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Topics published by the ledger services.
const (
	TopicBeds         = "beds"
	TopicInventory    = "inventory"
	TopicAppointments = "appointments"
)

// Event is a ledger change notification.
type Event struct {
	Topic    string          `json:"topic"`
	Action   string          `json:"action"` // created, updated, allocated, released, low_stock, ...
	Entity   string          `json:"entity"`
	EntityID string          `json:"entity_id,omitempty"`
	At       time.Time       `json:"at"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(topic, action, entity, entityID string) Event {
	return Event{Topic: topic, Action: action, Entity: entity, EntityID: entityID, At: time.Now().UTC()}
}

// Publisher is what domain services depend on. A nil *Hub is a valid
// Publisher that drops events, so services need no wiring in tests.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// clientMessage is an inbound subscription command from a client.
type clientMessage struct {
	Action string   `json:"action"` // subscribe | unsubscribe
	Topics []string `json:"topics"`
}

// client is one connected dashboard.
type client struct {
	id     string
	topics map[string]struct{}
	send   chan []byte
}

// Hub tracks connected clients and their topic subscriptions.
type Hub struct {
	mu      sync.RWMutex
	byTopic map[string]map[*client]struct{}
	all     map[*client]struct{}
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		byTopic: make(map[string]map[*client]struct{}),
		all:     make(map[*client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.all[cl] = struct{}{}
	for topic := range cl.topics {
		if h.byTopic[topic] == nil {
			h.byTopic[topic] = make(map[*client]struct{})
		}
		h.byTopic[topic][cl] = struct{}{}
	}
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.all[cl]; !ok {
		return
	}
	for topic := range cl.topics {
		if subs, ok := h.byTopic[topic]; ok {
			delete(subs, cl)
			if len(subs) == 0 {
				delete(h.byTopic, topic)
			}
		}
	}
	delete(h.all, cl)
	close(cl.send)
}

func (h *Hub) subscribe(cl *client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		if h.byTopic[topic] == nil {
			h.byTopic[topic] = make(map[*client]struct{})
		}
		h.byTopic[topic][cl] = struct{}{}
		cl.topics[topic] = struct{}{}
	}
}

func (h *Hub) unsubscribe(cl *client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		if subs, ok := h.byTopic[topic]; ok {
			delete(subs, cl)
			if len(subs) == 0 {
				delete(h.byTopic, topic)
			}
		}
		delete(cl.topics, topic)
	}
}

// Publish broadcasts the event to every subscriber of its topic. Slow clients
// are skipped rather than blocked on.
func (h *Hub) Publish(_ context.Context, event Event) error {
	if h == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("topic", event.Topic).Msg("marshal ws event")
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for cl := range h.byTopic[event.Topic] {
		select {
		case cl.send <- data:
		default:
		}
	}
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byTopic[topic])
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the gateway
	},
}

// Handler upgrades HTTP connections and pumps hub messages.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", h.Connect)
}

// Connect upgrades the request to a WebSocket, registers the client, and
// starts the read/write pumps.
func (h *Handler) Connect(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		id:     uuid.NewString(),
		topics: make(map[string]struct{}),
		send:   make(chan []byte, 256),
	}
	h.hub.register(cl)

	go h.writePump(cl, conn)
	go h.readPump(cl, conn)

	return nil
}

func (h *Handler) readPump(cl *client, conn *gorillaws.Conn) {
	defer func() {
		h.hub.unregister(cl)
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Action {
		case "subscribe":
			h.hub.subscribe(cl, msg.Topics)
		case "unsubscribe":
			h.hub.unsubscribe(cl, msg.Topics)
		}
	}
}

func (h *Handler) writePump(cl *client, conn *gorillaws.Conn) {
	for data := range cl.send {
		if err := conn.WriteMessage(gorillaws.TextMessage, data); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(gorillaws.CloseMessage, nil)
}

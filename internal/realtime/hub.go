// README: In-process hub; per-order rooms plus a global broadcast scope.
package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

// Conn is one realtime client connection. Send must not block the hub: a
// connection that cannot keep up reports false and gets dropped by its
// transport.
type Conn interface {
	ID() string
	Send(ev Event) bool
}

// Hub is an explicit, injectable connection registry created at server start.
// It scopes publishes to a single order's room so unrelated orders' updates
// never reach uninvolved clients, and carries the global live-orders hint.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
	rooms map[types.ID]map[string]Conn

	events *prometheus.CounterVec
	log    zerolog.Logger
}

func NewHub(events *prometheus.CounterVec, log zerolog.Logger) *Hub {
	return &Hub{
		conns:  make(map[string]Conn),
		rooms:  make(map[types.ID]map[string]Conn),
		events: events,
		log:    log,
	}
}

// Register adds a connection to the registry. Join calls are rejected for
// unregistered connections, so transports register before reading.
func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

// Join subscribes a connection to one order's room. Idempotent; joining an
// order nobody has published to yet is fine.
func (h *Hub) Join(connID string, orderID types.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return
	}
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[string]Conn)
		h.rooms[orderID] = room
	}
	room[connID] = c
}

// Disconnect removes a connection from every room and from the registry.
// Membership edits are single synchronous operations; there is no half-left
// state.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	for orderID, room := range h.rooms {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, orderID)
		}
	}
}

// PublishToOrder emits an event to every subscriber of one order.
func (h *Hub) PublishToOrder(orderID types.ID, ev Event) {
	h.mu.RLock()
	subs := make([]Conn, 0, len(h.rooms[orderID]))
	for _, c := range h.rooms[orderID] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		if !c.Send(ev) {
			h.log.Warn().Str("conn_id", c.ID()).Str("event", ev.Name).Msg("slow subscriber, event dropped")
		}
	}
	if h.events != nil {
		h.events.WithLabelValues(ev.Name).Add(float64(len(subs)))
	}
}

// Broadcast emits an event to every registered connection.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	all := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		if !c.Send(ev) {
			h.log.Warn().Str("conn_id", c.ID()).Str("event", ev.Name).Msg("slow subscriber, event dropped")
		}
	}
	if h.events != nil {
		h.events.WithLabelValues(ev.Name).Add(float64(len(all)))
	}
}

// PublishStatus implements order.Publisher: the canonical status event for
// one order's room.
func (h *Hub) PublishStatus(orderID types.ID, status order.Status) {
	h.PublishToOrder(orderID, mustEvent(EventStatusUpdate, StatusPayload{Status: string(status)}))
}

// PublishLocation implements tracking.Publisher: the latest courier sample
// for one order's room.
func (h *Hub) PublishLocation(orderID types.ID, pos types.Point) {
	h.PublishToOrder(orderID, mustEvent(EventLocationUpdate, PositionPayload{Lat: pos.Lat, Lng: pos.Lng}))
}

// BroadcastLiveOrders implements order.Broadcaster: the payload-free hint
// telling staff boards to refetch the live-order list.
func (h *Hub) BroadcastLiveOrders() {
	h.Broadcast(Event{Name: EventLiveOrdersUpdate})
}

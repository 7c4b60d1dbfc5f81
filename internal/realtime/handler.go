// README: Message handlers for client frames, registered by event name.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/order"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/modules/tracking"
	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

// ClientConn extends Conn with the acting identity supplied by the upstream
// auth layer. The handlers trust that role checks already happened.
type ClientConn interface {
	Conn
	Actor() (id, role string)
}

type HandlerFunc func(ctx context.Context, c ClientConn, data json.RawMessage)

// Handlers dispatches inbound frames to the order and tracking services.
// Errors go back only on the initiating connection; other subscribers simply
// see no change.
type Handlers struct {
	hub      *Hub
	orders   *order.Service
	tracking *tracking.Service
	errs     prometheus.Counter
	log      zerolog.Logger

	byName map[string]HandlerFunc
}

func NewHandlers(hub *Hub, orders *order.Service, trk *tracking.Service, errs prometheus.Counter, log zerolog.Logger) *Handlers {
	h := &Handlers{hub: hub, orders: orders, tracking: trk, errs: errs, log: log}
	h.byName = map[string]HandlerFunc{
		EventJoinOrder:      h.handleJoin,
		EventUpdatePosition: h.handleUpdatePosition,
		EventUpdateStatus:   h.handleUpdateStatus,
	}
	return h
}

// Dispatch routes one inbound frame. Unknown event names get an error frame
// back rather than closing the connection.
func (h *Handlers) Dispatch(ctx context.Context, c ClientConn, ev Event) {
	fn, ok := h.byName[ev.Name]
	if !ok {
		sendError(c, "unknown event: "+ev.Name)
		return
	}
	fn(ctx, c, ev.Data)
}

func (h *Handlers) handleJoin(_ context.Context, c ClientConn, data json.RawMessage) {
	var p JoinPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == "" {
		sendError(c, "joinOrder: missing orderId")
		return
	}
	h.hub.Join(c.ID(), types.ID(p.OrderID))
}

func (h *Handlers) handleUpdatePosition(ctx context.Context, c ClientConn, data json.RawMessage) {
	var p PositionPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == "" {
		sendError(c, "updatePosition: missing orderId")
		return
	}
	err := h.tracking.RecordPosition(ctx, types.ID(p.OrderID), types.Point{Lat: p.Lat, Lng: p.Lng})
	if err != nil {
		// Sample dropped; only the sending courier hears about it.
		sendError(c, "updatePosition: "+err.Error())
	}
}

func (h *Handlers) handleUpdateStatus(ctx context.Context, c ClientConn, data json.RawMessage) {
	var p StatusPayload
	if err := json.Unmarshal(data, &p); err != nil || p.OrderID == "" || p.Status == "" {
		sendError(c, "updateStatus: missing orderId or status")
		return
	}

	orderID := types.ID(p.OrderID)
	before, err := h.orders.Get(ctx, orderID)
	if err != nil {
		h.transitionFailed(c, err)
		return
	}

	actorID, actorRole := c.Actor()
	cmd := order.TransitionCommand{
		OrderID:   orderID,
		To:        order.Status(p.Status),
		ActorType: actorRole,
	}
	if actorID != "" {
		id := types.ID(actorID)
		cmd.ActorID = &id
	}
	if err := h.orders.Transition(ctx, cmd); err != nil {
		h.transitionFailed(c, err)
		return
	}

	// The room already got its statusUpdate from the service; boards tracking
	// the whole live set still need the refetch hint when this order entered
	// or left it.
	if order.IsLive(before.Status) || order.IsLive(order.Status(p.Status)) {
		h.hub.BroadcastLiveOrders()
	}
}

func (h *Handlers) transitionFailed(c ClientConn, err error) {
	if h.errs != nil {
		h.errs.Inc()
	}
	sendError(c, "updateStatus: "+err.Error())
}

func sendError(c ClientConn, msg string) {
	c.Send(mustEvent(EventError, ErrorPayload{Message: msg}))
}

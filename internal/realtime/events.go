// README: Wire protocol for the realtime channel (event names and payloads).
package realtime

import "encoding/json"

const (
	// client → server
	EventJoinOrder      = "joinOrder"
	EventUpdatePosition = "updatePosition"
	EventUpdateStatus   = "updateStatus"

	// server → subscribers(orderId)
	EventLocationUpdate = "locationUpdate"
	EventStatusUpdate   = "statusUpdate"

	// server → all; hint to refetch the live-order list, carries no data
	EventLiveOrdersUpdate = "live-orders:update"

	// server → initiating connection only
	EventError = "error"
)

// Event is one frame on the wire in either direction.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	OrderID string `json:"orderId"`
}

type PositionPayload struct {
	OrderID string  `json:"orderId,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type StatusPayload struct {
	OrderID string `json:"orderId,omitempty"`
	Status  string `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func mustEvent(name string, payload any) Event {
	if payload == nil {
		return Event{Name: name}
	}
	body, _ := json.Marshal(payload)
	return Event{Name: name, Data: body}
}

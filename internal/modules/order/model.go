// README: Order aggregate, status definitions and the per-fulfilment-type transition graphs.
package order

import (
	"time"

	"github.com/Salah-eem/ei-resto-commande-sub001/internal/types"
)

type Status string

const (
	StatusScheduled        Status = "scheduled"
	StatusConfirmed        Status = "confirmed"
	StatusInPreparation    Status = "in_preparation"
	StatusPrepared         Status = "prepared"
	StatusReadyForPickup   Status = "ready_for_pickup"
	StatusReadyForDelivery Status = "ready_for_delivery"
	StatusPickedUp         Status = "picked_up"
	StatusOutForDelivery   Status = "out_for_delivery"
	StatusDelivered        Status = "delivered"
	StatusCanceled         Status = "canceled"
)

type Type string

const (
	TypePickup   Type = "pickup"
	TypeDelivery Type = "delivery"
)

type Address struct {
	Street   string
	City     string
	Zip      string
	Position types.Point
}

type Item struct {
	ID               types.ID
	Name             string
	Quantity         int
	PreparedQuantity int
}

// Prepared reports whether the kitchen has validated every unit of the line.
func (i Item) Prepared() bool { return i.PreparedQuantity >= i.Quantity }

type Position struct {
	Lat        float64
	Lng        float64
	RecordedAt time.Time
}

type Order struct {
	ID            types.ID
	Type          Type
	Status        Status
	StatusVersion int
	ScheduledFor  *time.Time
	Address       *Address
	Items         []Item
	CourierID     *types.ID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AllPrepared reports the derived order-level prepared signal. It never moves
// the status by itself; staff still confirm the "prepared" transition.
func (o *Order) AllPrepared() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, it := range o.Items {
		if !it.Prepared() {
			return false
		}
	}
	return true
}

type Event struct {
	ID        int64
	OrderID   types.ID
	From      Status
	To        Status
	ActorType string
	ActorID   *types.ID
	CreatedAt time.Time
}

// deliveryTransitions and pickupTransitions represent the two status flows
// (diagram) as code. Canceled edges are handled in CanTransition so every
// non-terminal state keeps them without repeating the entry per row.
var deliveryTransitions = map[Status][]Status{
	StatusScheduled:        {StatusConfirmed},
	StatusConfirmed:        {StatusInPreparation},
	StatusInPreparation:    {StatusPrepared},
	StatusPrepared:         {StatusReadyForDelivery},
	StatusReadyForDelivery: {StatusOutForDelivery},
	StatusOutForDelivery:   {StatusDelivered},
}

var pickupTransitions = map[Status][]Status{
	StatusScheduled:      {StatusConfirmed},
	StatusConfirmed:      {StatusInPreparation},
	StatusInPreparation:  {StatusPrepared},
	StatusPrepared:       {StatusReadyForPickup},
	StatusReadyForPickup: {StatusPickedUp},
}

// IsTerminal reports whether no further transition may leave the status.
func IsTerminal(s Status) bool {
	return s == StatusDelivered || s == StatusPickedUp || s == StatusCanceled
}

// CanTransition reports whether from→to is a legal edge in the graph selected
// by the fulfilment type.
func CanTransition(t Type, from, to Status) bool {
	if IsTerminal(from) {
		return false
	}
	if to == StatusCanceled {
		return true
	}
	graph := deliveryTransitions
	if t == TypePickup {
		graph = pickupTransitions
	}
	for _, s := range graph[from] {
		if s == to {
			return true
		}
	}
	return false
}

// LiveStatuses is the actionable set shown on the kitchen and delivery boards.
var LiveStatuses = []Status{
	StatusConfirmed,
	StatusInPreparation,
	StatusPrepared,
	StatusReadyForPickup,
	StatusReadyForDelivery,
	StatusOutForDelivery,
}

// IsLive reports whether an order in this status belongs to the live set.
func IsLive(s Status) bool {
	for _, l := range LiveStatuses {
		if l == s {
			return true
		}
	}
	return false
}

// Package realtime fans order change events out to in-process subscribers.
package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_order/internal/models"
)

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
)

const TableOrders = "orders"

type Event struct {
	Type    EventType          `json:"type"`
	Table   string             `json:"table"`
	OrderID uuid.UUID          `json:"order_id"`
	UserID  uuid.UUID          `json:"user_id"`
	Status  models.OrderStatus `json:"status"`
	At      time.Time          `json:"at"`
}

func OrderInserted(o models.Order, at time.Time) Event {
	return Event{Type: EventInsert, Table: TableOrders, OrderID: o.ID, UserID: o.UserID, Status: o.Status, At: at}
}

func OrderUpdated(o models.Order, at time.Time) Event {
	return Event{Type: EventUpdate, Table: TableOrders, OrderID: o.ID, UserID: o.UserID, Status: o.Status, At: at}
}

// Filter selects events. Zero fields match anything.
type Filter struct {
	Type    EventType
	OrderID uuid.UUID
}

func (f Filter) Match(e Event) bool {
	if f.Type != "" && f.Type != e.Type {
		return false
	}
	if f.OrderID != uuid.Nil && f.OrderID != e.OrderID {
		return false
	}
	return true
}

package event

import (
	"encoding/json"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// Event names pushed to connected clients.
const (
	EventNewOrder     = "newOrder"
	EventUpdateStatus = "update-status"
)

// WsEvent is the envelope for every frame on the realtime channel.
type WsEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewWsEvent wraps a payload into an envelope for the given event name.
func NewWsEvent(name string, payload interface{}) (WsEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Data: data}, nil
}

// StatusUpdate is the payload of an update-status event. UserID is the
// buyer the event is addressed to; clients check it against their own
// identity before touching local state.
type StatusUpdate struct {
	OrderID string             `json:"orderId"`
	ShopID  string             `json:"shopId"`
	Status  models.OrderStatus `json:"status"`
	UserID  string             `json:"userId"`
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Shubhams-here/Dabba-Drop/internal/event"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// reduceNewOrder prepends an incoming order when one of its shop orders
// belongs to the given user. Events for other identities and orders
// already present leave the list untouched. The input slice is never
// mutated.
func reduceNewOrder(orders []models.Order, incoming models.Order, userID string) []models.Order {
	mine := false
	for _, so := range incoming.ShopOrders {
		if so.Owner.Hex() == userID {
			mine = true
			break
		}
	}
	if !mine {
		return orders
	}
	for _, o := range orders {
		if o.ID == incoming.ID {
			return orders
		}
	}

	out := make([]models.Order, 0, len(orders)+1)
	out = append(out, incoming)
	out = append(out, orders...)
	return out
}

// reduceStatusUpdate applies a status change to exactly the order and
// shop order the update names, and only when the update is addressed to
// the given user. Unknown orders and foreign identities are no-ops. The
// input slice is never mutated.
func reduceStatusUpdate(orders []models.Order, upd event.StatusUpdate, userID string) []models.Order {
	if upd.UserID != userID {
		return orders
	}

	for i := range orders {
		if orders[i].ID.Hex() != upd.OrderID {
			continue
		}
		for j := range orders[i].ShopOrders {
			if orders[i].ShopOrders[j].Shop.Hex() != upd.ShopID {
				continue
			}

			out := append([]models.Order(nil), orders...)
			out[i].ShopOrders = append([]models.ShopOrder(nil), orders[i].ShopOrders...)
			out[i].ShopOrders[j].Status = upd.Status
			return out
		}
		return orders
	}
	return orders
}

// OrderStore is the client-side view of the caller's orders. A fetch
// seeds it, after which realtime events keep it reconciled without
// refetching.
type OrderStore struct {
	userID string
	logger *zap.Logger

	mu     sync.RWMutex
	orders []models.Order
}

// NewOrderStore creates an OrderStore for the given user identity.
func NewOrderStore(userID string, logger *zap.Logger) *OrderStore {
	return &OrderStore{userID: userID, logger: logger}
}

// Orders returns a snapshot of the current list.
func (s *OrderStore) Orders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Order(nil), s.orders...)
}

// Replace swaps the whole list in, used after a fetch.
func (s *OrderStore) Replace(orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = orders
}

// Reset empties the list, used when a fetch fails so the view never
// shows stale data as current.
func (s *OrderStore) Reset() {
	s.Replace(nil)
}

// Bind subscribes the store to the order events on the socket.
func (s *OrderStore) Bind(socket *Socket) {
	socket.Subscribe(event.EventNewOrder, func(payload json.RawMessage) {
		var incoming models.Order
		if err := json.Unmarshal(payload, &incoming); err != nil {
			s.logger.Warn("dropping malformed newOrder payload", zap.Error(err))
			return
		}
		s.mu.Lock()
		s.orders = reduceNewOrder(s.orders, incoming, s.userID)
		s.mu.Unlock()
	})

	socket.Subscribe(event.EventUpdateStatus, func(payload json.RawMessage) {
		var upd event.StatusUpdate
		if err := json.Unmarshal(payload, &upd); err != nil {
			s.logger.Warn("dropping malformed update-status payload", zap.Error(err))
			return
		}
		s.mu.Lock()
		s.orders = reduceStatusUpdate(s.orders, upd, s.userID)
		s.mu.Unlock()
	})
}

// Unbind detaches the store's handlers from the socket. The connection
// itself stays open for any other subscribers.
func (s *OrderStore) Unbind(socket *Socket) {
	socket.Unsubscribe(event.EventNewOrder)
	socket.Unsubscribe(event.EventUpdateStatus)
}

// Fetch pulls the caller's orders from the API and replaces the store
// contents. On failure the store is reset.
func (s *OrderStore) Fetch(ctx context.Context, baseURL, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/order/my-orders", nil)
	if err != nil {
		s.Reset()
		return fmt.Errorf("failed to build my-orders request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "token", Value: token})

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		s.Reset()
		return fmt.Errorf("my-orders request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Reset()
		return fmt.Errorf("my-orders returned status %d", resp.StatusCode)
	}

	var body struct {
		Success bool           `json:"success"`
		Data    []models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.Reset()
		return fmt.Errorf("failed to decode my-orders response: %w", err)
	}
	if !body.Success {
		s.Reset()
		return fmt.Errorf("my-orders request was rejected by the server")
	}

	s.Replace(body.Data)
	return nil
}

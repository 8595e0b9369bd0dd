package hub

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Shubhams-here/Dabba-Drop/internal/event"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

// Emitter is the outbound side of the hub, as seen by services that
// need to push events to a specific user identity.
type Emitter interface {
	EmitToUser(userID string, ev event.WsEvent)
}

type clientBucket struct {
	sync.RWMutex
	// users maps a user identity to its open connections, keyed by client ID.
	// One user may hold several tabs/devices; each gets every event
	// addressed to that identity.
	users map[string]map[string]*Client
}

// Hub is the realtime event channel. Connections register under the
// authenticated user's identity and events are delivered only to the
// addressed identity's connections, so one user's order updates never
// transit another user's socket.
type Hub struct {
	shards     [shardCount]*clientBucket
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewHub(logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < shardCount; i++ {
		h.shards[i] = &clientBucket{
			users: make(map[string]map[string]*Client),
		}
	}

	// run manager loop
	h.wg.Add(1)
	go h.run()

	return h
}

func getShard(userID string) uint32 {
	if userID == "" {
		return 0
	}

	h := sha1.Sum([]byte(userID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

// EmitToUser delivers an event to every open connection of the given
// identity. Delivery is fire-and-forget: a connection whose egress
// buffer stays full past the send timeout is dropped, and a missed
// event leaves that client stale until its next full fetch.
func (h *Hub) EmitToUser(userID string, ev event.WsEvent) {
	sh := getShard(userID)
	b := h.shards[sh]

	// collect clients while holding RLock
	b.RLock()
	conns, ok := b.users[userID]
	if !ok || len(conns) == 0 {
		b.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(conns))
	for _, c := range conns {
		clients = append(clients, c)
	}
	b.RUnlock()

	// deliver to clients without holding lock
	for _, c := range clients {
		select {
		case c.egress <- ev:
			// enqueued
		case <-c.ctx.Done():
			// client is shutting down
		case <-time.After(sendTimeout):
			h.logger.Warn("egress full, dropping client",
				zap.String("clientId", c.ID),
				zap.String("userId", userID))
			h.Unregister(c)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	sh := getShard(c.userID)
	b := h.shards[sh]
	b.Lock()
	defer b.Unlock()

	conns, ok := b.users[c.userID]
	if !ok {
		conns = make(map[string]*Client)
		b.users[c.userID] = conns
	}

	conns[c.ID] = c
	h.logger.Info("client registered",
		zap.String("clientId", c.ID),
		zap.String("userId", c.userID),
		zap.Uint32("shard", sh))
}

func (h *Hub) removeClient(c *Client) {
	sh := getShard(c.userID)
	b := h.shards[sh]
	b.Lock()
	defer b.Unlock()

	if conns, ok := b.users[c.userID]; ok {
		if _, exists := conns[c.ID]; exists {
			delete(conns, c.ID)
		}

		if len(conns) == 0 {
			delete(b.users, c.userID)
		}

		c.Close()
		h.logger.Info("client removed",
			zap.String("clientId", c.ID),
			zap.String("userId", c.userID),
			zap.Uint32("shard", sh))
	}
}

// ClientCount reports the number of open connections across all shards.
func (h *Hub) ClientCount() int {
	total := 0
	for _, shard := range h.shards {
		shard.RLock()
		for _, conns := range shard.users {
			total += len(conns)
		}
		shard.RUnlock()
	}
	return total
}

// Unregister queues a client for removal without blocking the caller.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-time.After(unregisterTimeout):
		h.logger.Warn("failed to unregister client: timeout", zap.String("clientId", c.ID))
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// Stop closes all client connections and halts the manager loop.
func (h *Hub) Stop() {
	h.cancel()

	for _, shard := range h.shards {
		shard.RLock()
		for _, conns := range shard.users {
			for _, client := range conns {
				client.Close()
			}
		}
		shard.RUnlock()
	}

	h.wg.Wait()
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token authentication happens before the upgrade; cross-origin
	// browsers still need the cookie, so origin checking is delegated
	// to the CORS layer in front.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the connection under the
// already-authenticated user identity.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	RegisterClient(userID, conn, h)
}

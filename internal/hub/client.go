package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Shubhams-here/Dabba-Drop/internal/event"
)

// Client is one WebSocket connection bound to a user identity.
type Client struct {
	ID     string
	userID string

	conn    *websocket.Conn
	manager *Hub
	egress  chan event.WsEvent
	logger  *zap.Logger

	ctx            context.Context
	cancel         context.CancelFunc
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
}

var (
	// tuning parameters
	writeWait         = 10 * time.Second    // time allowed to write a message to the peer
	pongWait          = 20 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval      = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize    = 4 * 1024            // max inbound message size; clients send nothing but control frames
	sendBufSize       = 256                 // per-connection outbound buffer size
	sendTimeout       = 2 * time.Second     // timeout for enqueuing outbound messages
	registerTimeout   = 5 * time.Second     // timeout for client registration
	unregisterTimeout = 5 * time.Second     // timeout for client unregistration
)

// RegisterClient creates a new client for the connection and enrols it with the hub.
func RegisterClient(userID string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	clientID := uuid.New().String()

	client := &Client{
		ID:         clientID,
		userID:     userID,
		conn:       conn,
		manager:    h,
		egress:     make(chan event.WsEvent, sendBufSize),
		logger:     h.logger,
		ctx:        ctx,
		cancel:     cancel,
		connClosed: make(chan struct{}),
	}

	select {
	case h.register <- client:
		go client.readLoop()
		go client.writeLoop()
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("failed to register client: timeout", zap.String("clientId", clientID))
		cancel()
		conn.Close()
		return nil
	}
}

// readLoop drains the connection. No client-to-server events are defined
// on this channel, so inbound frames are discarded; the loop exists to
// process control frames and notice disconnects.
func (c *Client) readLoop() {
	defer func() {
		c.manager.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			if _, _, err := c.conn.ReadMessage(); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.logger.Info("client disconnected", zap.String("clientId", c.ID))
					return
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.logger.Info("client timed out, closing connection", zap.String("clientId", c.ID))
					return
				}

				c.logger.Warn("error reading from client", zap.String("clientId", c.ID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
		_ = c.conn.Close()

		// Safe close of connClosed channel using sync.Once
		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Warn("write failed", zap.String("clientId", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("ping failed", zap.String("clientId", c.ID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// Close tears the client down exactly once.
func (c *Client) Close() {
	// egress is never closed; cancellation is the only shutdown signal,
	// so a concurrent EmitToUser can never hit a closed channel.
	c.once.Do(func() {
		c.cancel()

		// Wait for writeLoop to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// writeLoop closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
				c.logger.Warn("safety timeout: force closed connection", zap.String("clientId", c.ID))
			}
		}()
	})
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Shubhams-here/Dabba-Drop/internal/event"
)

// Handler consumes the payload of one realtime event.
type Handler func(payload json.RawMessage)

// Socket is a client connection to the realtime channel. Incoming
// events are dispatched to subscribed handlers by event name; frames
// that do not parse as events are dropped.
type Socket struct {
	conn   *websocket.Conn
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the realtime endpoint. The auth token travels the
// same way the browser sends it, as the "token" cookie.
func Dial(ctx context.Context, wsURL, token string, logger *zap.Logger) (*Socket, error) {
	header := http.Header{}
	header.Set("Cookie", "token="+token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &Socket{
		conn:     conn,
		logger:   logger,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Subscribe registers a handler for the named event. Multiple handlers
// per event are allowed and run in registration order.
func (s *Socket) Subscribe(eventName string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[eventName] = append(s.handlers[eventName], h)
}

// Unsubscribe drops every handler for the named event. The connection
// stays up, so other subscribers keep receiving their events.
func (s *Socket) Unsubscribe(eventName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, eventName)
}

// Done is closed once the connection is gone.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// Close tears the connection down.
func (s *Socket) Close() {
	s.closeOnce.Do(func() {
		s.conn.Close()
	})
}

func (s *Socket) readLoop() {
	defer func() {
		s.Close()
		close(s.done)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("socket closed", zap.Error(err))
			}
			return
		}

		var ev event.WsEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Event == "" {
			s.logger.Warn("dropping malformed event", zap.Error(err))
			continue
		}

		s.mu.RLock()
		handlers := append([]Handler(nil), s.handlers[ev.Event]...)
		s.mu.RUnlock()
		for _, h := range handlers {
			h(ev.Data)
		}
	}
}

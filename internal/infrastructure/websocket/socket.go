package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
)

// connection is one dialed websocket with its pumps.
type connection struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *connection) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Socket is a client connection to the realtime server. Event handlers run one
// at a time on the read loop.
type Socket struct {
	url    string
	token  func() string
	dialer *websocket.Dialer

	mu       sync.RWMutex
	current  *connection
	handlers map[string]map[uint64]func(json.RawMessage)
	nextID   uint64

	dispatchMu sync.Mutex
	log        *logger.Component
}

func NewSocket(url string, token func() string) *Socket {
	if token == nil {
		token = func() string { return "" }
	}
	return &Socket{
		url:      url,
		token:    token,
		dialer:   &websocket.Dialer{HandshakeTimeout: writeWait},
		handlers: make(map[string]map[uint64]func(json.RawMessage)),
		log:      logger.With("socket"),
	}
}

// Connect dials the server unless already connected. Handlers registered for
// EventConnect run after a fresh dial.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return nil
	}

	header := http.Header{}
	if token := s.token(); token != "" {
		header.Set("Cookie", (&http.Cookie{Name: "token", Value: token}).String())
	}

	conn, _, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		s.mu.Unlock()
		s.log.Error("dial %s failed: %v", s.url, err)
		return errors.Transport("failed to connect to the chat server", err)
	}

	c := &connection{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	s.current = c
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)

	s.log.Info("connected to %s", s.url)
	s.dispatch(EventConnect, nil)
	return nil
}

func (s *Socket) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// On registers handler for event. The returned func removes exactly this handler.
func (s *Socket) On(event string, handler func(data json.RawMessage)) (off func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[uint64]func(json.RawMessage))
	}
	s.handlers[event][id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers[event], id)
			if len(s.handlers[event]) == 0 {
				delete(s.handlers, event)
			}
			s.mu.Unlock()
		})
	}
}

func (s *Socket) Emit(event string, payload interface{}) error {
	data, err := NewEnvelope(event, payload)
	if err != nil {
		return errors.Internal("failed to encode event", err)
	}

	s.mu.RLock()
	c := s.current
	s.mu.RUnlock()
	if c == nil {
		return errors.Transport("chat server is not connected", nil)
	}

	select {
	case <-c.done:
		return errors.Transport("chat server connection closed", nil)
	case c.send <- data:
		return nil
	default:
		return errors.Transport("send buffer is full", nil)
	}
}

func (s *Socket) Close() error {
	s.mu.Lock()
	c := s.current
	s.current = nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	c.shutdown()
	s.log.Info("disconnected from %s", s.url)
	return nil
}

// drop forgets c if it is still the live connection.
func (s *Socket) drop(c *connection) {
	s.mu.Lock()
	dropped := s.current == c
	if dropped {
		s.current = nil
	}
	s.mu.Unlock()

	c.shutdown()
	if dropped {
		s.dispatch(EventDisconnect, nil)
	}
}

func (s *Socket) dispatch(event string, data json.RawMessage) {
	s.mu.RLock()
	handlers := make([]func(json.RawMessage), 0, len(s.handlers[event]))
	for _, h := range s.handlers[event] {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	for _, h := range handlers {
		h(data)
	}
}

func (s *Socket) readPump(c *connection) {
	defer s.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Error("read failed: %v", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			s.log.Warn("dropping malformed frame: %v", err)
			continue
		}
		s.log.Debug("received %s", env.Type)
		s.dispatch(env.Type, env.Data)
	}
}

func (s *Socket) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.shutdown()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Error("write failed: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

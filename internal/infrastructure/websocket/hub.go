package websocket

import (
	"context"
	"sync"
	"time"

	"dongnezip/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one UI connection on the local push channel.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans component updates out to every connected UI.
type Hub struct {
	clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
	log        *logger.Component
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		log:        logger.With("hub"),
	}
}

// Start runs the hub's main loop until ctx is done.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.Register:
				h.mutex.Lock()
				h.clients[client.ID] = client
				h.mutex.Unlock()
				h.log.Info("ui client registered: %s", client.ID)

			case client := <-h.Unregister:
				h.remove(client.ID)
				h.log.Info("ui client unregistered: %s", client.ID)

			case message := <-h.broadcast:
				h.mutex.RLock()
				var slow []string
				for id, client := range h.clients {
					select {
					case client.Send <- message:
					default:
						slow = append(slow, id)
					}
				}
				h.mutex.RUnlock()
				for _, id := range slow {
					h.remove(id)
				}

			case <-ctx.Done():
				close(h.done)
				h.mutex.Lock()
				for id, client := range h.clients {
					close(client.Send)
					delete(h.clients, id)
				}
				h.mutex.Unlock()
				return
			}
		}
	}()
}

func (h *Hub) remove(id string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if client, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(client.Send)
	}
}

// Publish queues topic/payload for every UI client. It never blocks; when the
// queue is full the update is dropped.
func (h *Hub) Publish(topic string, payload interface{}) {
	data, err := NewEnvelope(topic, payload)
	if err != nil {
		h.log.Error("failed to encode %s: %v", topic, err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("dropping %s update, hub queue full", topic)
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Serve registers conn and pumps until the UI goes away.
func (h *Hub) Serve(conn *websocket.Conn) {
	client := &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}
	select {
	case h.Register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(h)
}

// ReadPump discards inbound frames; the UI only listens on this channel.
func (c *Client) ReadPump(h *Hub) {
	defer func() {
		select {
		case h.Unregister <- c:
		case <-h.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Error("ui client %s: %v", c.ID, err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"invoice-dashboard/internal/logger"
)

// DefaultTopic is the topic dashboard pages subscribe to.
const DefaultTopic = "dashboard"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans messages out to every connection subscribed to a topic.
type Hub struct {
	connections map[string]map[*Connection]bool

	register   chan *Connection
	unregister chan *Connection

	broadcast chan *Message

	// done is closed when Run returns; pumps and late handlers stop waiting on the hub.
	done  chan struct{}
	pumps sync.WaitGroup

	mu sync.RWMutex
}

type Connection struct {
	ws    *websocket.Conn
	topic string
	send  chan *Message
	hub   *Hub
}

type Message struct {
	Topic   string      `json:"topic,omitempty"`
	Type    string      `json:"type"`
	Channel string      `json:"channel,omitempty"`
	Data    interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan *Message, 256),
		done:        make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.topic] == nil {
				h.connections[conn.topic] = make(map[*Connection]bool)
			}
			h.connections[conn.topic][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.connections[message.Topic] {
				select {
				case conn.send <- message:
				default:
					// slow consumer
					h.remove(conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// shutdown drops every connection. Closing send stops the write pumps, and
// closing the sockets stops the read pumps, which no longer wait on unregister.
func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	var conns []*Connection
	for _, m := range h.connections {
		for c := range m {
			conns = append(conns, c)
		}
	}
	for _, c := range conns {
		h.remove(c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.ws.Close()
	}
}

// Wait blocks until every connection pump has exited.
func (h *Hub) Wait() {
	h.pumps.Wait()
}

// remove must be called with mu held.
func (h *Hub) remove(conn *Connection) {
	connections, ok := h.connections[conn.topic]
	if !ok {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	close(conn.send)
	if len(connections) == 0 {
		delete(h.connections, conn.topic)
	}
}

// Subscribers returns the number of open connections on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[topic])
}

// Broadcast queues message for topic, dropping it when the queue is full.
func (h *Hub) Broadcast(topic string, message *Message) {
	message.Topic = topic
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- message:
	default:
		l := logger.WithComponent("websocket")
		l.Warn().Str("topic", topic).Str("type", message.Type).Msg("hub broadcast channel is full, dropping message")
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, topic string) {
	if topic == "" {
		topic = DefaultTopic
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := logger.WithComponent("websocket")
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ws:    ws,
		topic: topic,
		send:  make(chan *Message, 256),
		hub:   h,
	}

	h.pumps.Add(2)
	select {
	case h.register <- conn:
	case <-h.done:
		h.pumps.Add(-2)
		_ = ws.Close()
		return
	}

	go conn.writePump()
	go conn.readPump()
}

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	pingPeriod = (pongWait * 9) / 10
)

// readPump only drains control frames; clients never send data.
func (c *Connection) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.ws.Close()
		c.hub.pumps.Done()
	}()

	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := logger.WithComponent("websocket")
				l.Debug().Err(err).Str("topic", c.topic).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
		c.hub.pumps.Done()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

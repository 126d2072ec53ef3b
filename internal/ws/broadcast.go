package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jbevemyr/rocktimer/internal/timing"
)

// sendBuffer is per-client slack before a stalled observer is cut loose.
const sendBuffer = 64

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// close signals writePump to exit. The send channel is never closed: a
// broadcast in flight may still hold a reference to this client, and a
// send into a buffered-but-dead channel is harmless where a send into a
// closed one would panic.
func (c *client) close() {
	close(c.done)
}

// Broadcaster fans coordinator snapshots out to every connected observer.
// Each client gets its own buffered send channel, so one stalled connection
// never delays the others or the coordinator.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*client]bool)}
}

// Notify implements timing.Notifier.
func (b *Broadcaster) Notify(snap timing.StatusSnapshot) {
	data, err := json.Marshal(StateMessage{Type: MsgStateUpdate, Data: snap})
	if err != nil {
		log.Printf("ws: broadcast marshal error: %v", err)
		return
	}

	b.mu.RLock()
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- data:
		default:
			// Client can't keep up, disconnect it.
			log.Printf("ws: client %s too slow, disconnecting", c.id)
			b.RemoveClient(c)
		}
	}
}

// AddClient registers a connection and immediately queues the current
// snapshot so late joiners never show stale state.
func (b *Broadcaster) AddClient(conn *websocket.Conn, snap timing.StatusSnapshot) *client {
	c := newClient(conn)

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	if data, err := json.Marshal(StateMessage{Type: MsgStateUpdate, Data: snap}); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}
	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

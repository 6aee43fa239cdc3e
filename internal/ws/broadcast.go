package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/catsvsdogs/results/internal/metrics"
	"github.com/catsvsdogs/results/internal/tally"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	sendBufferSize = 64
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	pongTimeout    = 60 * time.Second
)

// ErrTooManyConnections is returned by AddClient when the connection limit is reached.
var ErrTooManyConnections = errors.New("too many websocket connections")

// client is one viewer session.
type client struct {
	conn    *websocket.Conn
	b       *Broadcaster
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	groups  map[string]bool // guarded by b.mu
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.b.RemoveClient(c)
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}

// enqueue hands msg to the write pump without blocking. It reports false
// when the client's queue is full.
func (c *client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Broadcaster is the fan-out channel: it holds the connected viewer set and
// delivers every published event to all of it. It keeps no history, so a
// viewer joining after a publish sees only later ones.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	groups   map[string]map[*client]bool
	maxConns int
	seq      atomic.Uint64

	frameRate  rate.Limit
	frameBurst int
}

// NewBroadcaster creates a broadcaster. maxConns <= 0 means unlimited.
func NewBroadcaster(maxConns int) *Broadcaster {
	return &Broadcaster{
		clients:    make(map[*client]bool),
		groups:     make(map[string]map[*client]bool),
		maxConns:   maxConns,
		frameRate:  rate.Limit(5),
		frameBurst: 10,
	}
}

// AddClient registers a viewer and queues the welcome message ahead of any
// broadcast.
func (b *Broadcaster) AddClient(conn *websocket.Conn) (*client, error) {
	b.mu.Lock()
	if b.maxConns > 0 && len(b.clients) >= b.maxConns {
		b.mu.Unlock()
		metrics.ViewersRejected.Inc()
		return nil, ErrTooManyConnections
	}
	// The welcome seq is taken under the write lock, so every broadcast
	// this viewer sees carries a later seq.
	welcome, err := b.encode(EventMessage, WelcomePayload{Text: welcomeText})
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	c := &client{
		conn:    conn,
		b:       b,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(b.frameRate, b.frameBurst),
		groups:  make(map[string]bool),
	}
	c.send <- welcome
	b.clients[c] = true
	count := len(b.clients)
	b.mu.Unlock()

	metrics.ViewersConnected.Set(float64(count))
	go c.writePump()
	return c, nil
}

// RemoveClient drops a viewer and its group memberships. Safe to call more than once.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; !ok {
		b.mu.Unlock()
		return
	}
	b.removeLocked(c)
	count := len(b.clients)
	b.mu.Unlock()

	metrics.ViewersConnected.Set(float64(count))
}

func (b *Broadcaster) removeLocked(c *client) {
	delete(b.clients, c)
	for name := range c.groups {
		members := b.groups[name]
		delete(members, c)
		if len(members) == 0 {
			delete(b.groups, name)
		}
	}
	close(c.done)
}

// Subscribe records that c joined the named group. Membership is bookkeeping
// only: publishes still go to every connected viewer.
func (b *Broadcaster) Subscribe(c *client, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; !ok {
		return
	}
	members, ok := b.groups[channel]
	if !ok {
		members = make(map[*client]bool)
		b.groups[channel] = members
	}
	members[c] = true
	c.groups[channel] = true
}

// GroupSize returns how many connected viewers joined channel.
func (b *Broadcaster) GroupSize(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[channel])
}

// PublishScores sends the tally to every viewer. The payload is the tally
// encoded as a JSON string.
func (b *Broadcaster) PublishScores(t tally.Tally) {
	data, err := json.Marshal(t)
	if err != nil {
		slog.Error("scores marshal error", "error", err)
		return
	}
	b.broadcast(EventScores, string(data))
}

// PublishError sends an error report to every viewer.
func (b *Broadcaster) PublishError(message, detail string) {
	b.broadcast(EventError, ErrorPayload{Message: message, Detail: detail})
}

// PublishClearError tells every viewer the previous error no longer applies.
func (b *Broadcaster) PublishClearError() {
	b.broadcast(EventError, nil)
}

func (b *Broadcaster) encode(event Event, data interface{}) ([]byte, error) {
	return json.Marshal(OutboundFrame{
		Event: event,
		Seq:   b.seq.Add(1),
		Data:  data,
	})
}

// broadcast numbers the frame and snapshots the viewer set under one read
// lock, so a viewer registered after the snapshot never sees an older seq.
func (b *Broadcaster) broadcast(event Event, data interface{}) {
	b.mu.RLock()
	msg, err := b.encode(event, data)
	if err != nil {
		b.mu.RUnlock()
		slog.Error("broadcast marshal error", "event", event, "error", err)
		return
	}
	clients := make([]*client, 0, len(b.clients))
	for c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()
	metrics.BroadcastsTotal.WithLabelValues(string(event)).Inc()

	for _, c := range clients {
		if !c.enqueue(msg) {
			slog.Warn("ws client too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			metrics.ViewersEvicted.Inc()
			b.RemoveClient(c)
		}
	}
}

// ClientCount returns the number of connected viewers.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop disconnects every viewer.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	for c := range b.clients {
		b.removeLocked(c)
	}
	b.mu.Unlock()
	metrics.ViewersConnected.Set(0)
}

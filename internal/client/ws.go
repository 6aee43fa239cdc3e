package client

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/catsvsdogs/results/internal/tally"
)

const (
	reconnectBaseDelay = 1 * time.Second
	reconnectMaxDelay  = 30 * time.Second
	writeTimeout       = 10 * time.Second
	pongTimeout        = 60 * time.Second
	pingInterval       = 30 * time.Second
)

// ErrNotConnected is returned by writes attempted without a live connection.
var ErrNotConnected = errors.New("not connected")

// WSClient manages the connection to the results relay.
type WSClient struct {
	url string

	mu      sync.Mutex
	writeMu sync.Mutex // serialises conn writes (ping, subscribe)
	conn    *websocket.Conn
	seq     uint64
	pingCtx context.CancelFunc
}

// NewWSClient creates a client for the given ws:// URL.
func NewWSClient(url string) *WSClient {
	return &WSClient{url: url}
}

// --- Bubble Tea messages ---

// WSConnectedMsg is sent when the connection is established.
type WSConnectedMsg struct{}

// WSDisconnectedMsg is sent when the connection drops.
type WSDisconnectedMsg struct{ Err error }

// WelcomeMsg is the relay's greeting; the client starts up on it.
type WelcomeMsg struct{ Text string }

// ScoresMsg carries a fresh tally.
type ScoresMsg struct{ Tally tally.Tally }

// ErrorMsg reports or clears an upstream error. Err is nil on clear.
type ErrorMsg struct{ Err *ErrorPayload }

// Listen returns a command that dials the relay, retrying with capped
// exponential backoff until it connects or ctx is done.
func (c *WSClient) Listen(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		delay := reconnectBaseDelay
		for {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
			if err != nil {
				log.Printf("ws dial error: %v (retry in %v)", err, delay)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(delay):
				}
				delay = min(delay*2, reconnectMaxDelay)
				continue
			}

			c.mu.Lock()
			if c.pingCtx != nil {
				c.pingCtx()
			}
			pingCtx, pingCancel := context.WithCancel(ctx)
			c.conn = conn
			c.seq = 0
			c.pingCtx = pingCancel
			c.mu.Unlock()

			go c.pingLoop(pingCtx, conn)

			return WSConnectedMsg{}
		}
	}
}

// ReadLoop returns a command that reads until the next frame that maps to
// a message. Re-issue it after each message to keep reading.
func (c *WSClient) ReadLoop(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return WSDisconnectedMsg{Err: ErrNotConnected}
		}

		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		conn.SetReadDeadline(time.Now().Add(pongTimeout))

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				c.mu.Lock()
				if c.conn == conn {
					c.conn = nil
				}
				c.mu.Unlock()
				conn.Close()
				return WSDisconnectedMsg{Err: err}
			}

			var f Frame
			if err := json.Unmarshal(data, &f); err != nil {
				log.Printf("ws: bad frame: %v", err)
				continue
			}

			c.mu.Lock()
			c.seq = f.Seq
			c.mu.Unlock()

			if msg := dispatch(f); msg != nil {
				return msg
			}
		}
	}
}

// Subscribe asks the relay to add this connection to a named group.
func (c *WSClient) Subscribe(channel string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(map[string]interface{}{
		"event": EventSubscribe,
		"data":  map[string]string{"channel": channel},
	})
}

// Seq returns the last seen sequence number.
func (c *WSClient) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Close drops the current connection, if any.
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingCtx != nil {
		c.pingCtx()
		c.pingCtx = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *WSClient) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			cc := c.conn
			c.mu.Unlock()
			if cc != conn {
				return
			}
			c.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func dispatch(f Frame) tea.Msg {
	switch f.Event {
	case EventMessage:
		var p struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(f.Data, &p) == nil {
			return WelcomeMsg{Text: p.Text}
		}
	case EventScores:
		if t, err := decodeScores(f.Data); err == nil {
			return ScoresMsg{Tally: t}
		}
	case EventError:
		if p, err := decodeError(f.Data); err == nil {
			return ErrorMsg{Err: p}
		}
	}
	return nil
}

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catsvsdogs/results/internal/tally"
)

// relayStub writes frames to the first connection and forwards anything the
// client sends to inbound.
func relayStub(t *testing.T, frames []string, inbound chan<- []byte) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if inbound != nil {
				inbound <- data
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSClient_DispatchesFrames(t *testing.T) {
	url := relayStub(t, []string{
		`{"event":"message","seq":1,"data":{"text":"Welcome!"}}`,
		`not json`,
		`{"event":"mystery","seq":2,"data":{}}`,
		`{"event":"scores","seq":3,"data":"{\"a\":3,\"b\":1}"}`,
		`{"event":"error","seq":4,"data":{"message":"API Error: Status 500","detail":"boom"}}`,
		`{"event":"error","seq":5,"data":null}`,
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewWSClient(url)
	defer c.Close()

	require.IsType(t, WSConnectedMsg{}, c.Listen(ctx)())

	assert.Equal(t, WelcomeMsg{Text: "Welcome!"}, c.ReadLoop(ctx)())
	assert.Equal(t, ScoresMsg{Tally: tally.Tally{A: 3, B: 1}}, c.ReadLoop(ctx)())
	assert.Equal(t, uint64(3), c.Seq())
	assert.Equal(t, ErrorMsg{Err: &ErrorPayload{Message: "API Error: Status 500", Detail: "boom"}}, c.ReadLoop(ctx)())
	assert.Equal(t, ErrorMsg{Err: nil}, c.ReadLoop(ctx)())
}

func TestWSClient_DisconnectReported(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewWSClient("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.IsType(t, WSConnectedMsg{}, c.Listen(ctx)())

	msg := c.ReadLoop(ctx)()
	require.IsType(t, WSDisconnectedMsg{}, msg)
	assert.Error(t, msg.(WSDisconnectedMsg).Err)

	// The dropped connection is forgotten.
	assert.ErrorIs(t, c.Subscribe("results"), ErrNotConnected)
}

func TestWSClient_Subscribe(t *testing.T) {
	inbound := make(chan []byte, 1)
	url := relayStub(t, nil, inbound)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewWSClient(url)
	defer c.Close()
	require.IsType(t, WSConnectedMsg{}, c.Listen(ctx)())

	require.NoError(t, c.Subscribe("results"))

	select {
	case data := <-inbound:
		var f struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(data, &f))
		assert.Equal(t, "subscribe", f.Event)
		assert.Equal(t, "results", f.Data["channel"])
	case <-ctx.Done():
		t.Fatal("subscribe frame not received")
	}
}

func TestWSClient_NotConnected(t *testing.T) {
	c := NewWSClient("ws://127.0.0.1:1/ws")
	assert.ErrorIs(t, c.Subscribe("x"), ErrNotConnected)

	msg := c.ReadLoop(context.Background())()
	assert.Equal(t, WSDisconnectedMsg{Err: ErrNotConnected}, msg)
}

func TestWSClient_ListenStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewWSClient("ws://127.0.0.1:1/ws")
	assert.Nil(t, c.Listen(ctx)())
}

func TestDecodeScores_RejectsObject(t *testing.T) {
	_, err := decodeScores(json.RawMessage(`{"a":1,"b":2}`))
	assert.Error(t, err)
}

package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubHelloAndBroadcast(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	hub.SetHello(func() any {
		return map[string]any{"type": "hello", "state": "idle"}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	// The snapshot arrives before any broadcast.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var hello map[string]any
	require.NoError(t, json.Unmarshal(msg, &hello))
	assert.Equal(t, "hello", hello["type"])
	assert.Equal(t, "idle", hello["state"])

	hub.BroadcastJSON(map[string]any{"type": "ber", "percent": 1.5})

	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "ber", ev["type"])
	assert.InDelta(t, 1.5, ev["percent"].(float64), 1e-9)
}

func TestHubClientCount(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastJSONDropsWhenSaturated(t *testing.T) {
	t.Parallel()

	// No Run loop draining the channel: fills up, then drops silently.
	hub := NewHub()
	for i := 0; i < 300; i++ {
		hub.BroadcastJSON(map[string]any{"i": i})
	}
}

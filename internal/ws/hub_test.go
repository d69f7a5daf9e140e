package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lumen-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.GET("/ws", hub.HandleWS)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestHubDeliversGenerationEvents(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}), nil)
	go hub.Run()

	conn := dialHub(t, hub)
	// registration races the first publish; give the hub a beat
	time.Sleep(50 * time.Millisecond)

	hub.Fragment(7, "hello")
	hub.Fragment(7, " world")
	hub.Done(7)

	event := readEvent(t, conn)
	assert.Equal(t, EventStreamResponse, event.Type)
	assert.Equal(t, int64(7), event.ThreadID)
	assert.Equal(t, "hello", event.Content)

	event = readEvent(t, conn)
	assert.Equal(t, " world", event.Content)

	event = readEvent(t, conn)
	assert.Equal(t, EventStreamDone, event.Type)
	assert.Equal(t, int64(7), event.ThreadID)
}

func TestHubDeliversStreamError(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}), nil)
	go hub.Run()

	conn := dialHub(t, hub)
	time.Sleep(50 * time.Millisecond)

	hub.StreamError(3, "backend unreachable")

	event := readEvent(t, conn)
	assert.Equal(t, EventStreamError, event.Type)
	assert.Equal(t, int64(3), event.ThreadID)
	assert.Equal(t, "backend unreachable", event.Message)
}

func TestHubPublishDoesNotBlockWithoutClients(t *testing.T) {
	hub := NewHub(logger.New(logger.Config{Level: "error"}), nil)
	go hub.Run()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Fragment(1, "burst")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no connected clients")
	}
}

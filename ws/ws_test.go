package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"metalhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId"`
}

func newTestServer(t *testing.T, manager *WebSocketManager) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewWebSocketHandler(manager, nil)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		if id := c.Query("as"); id != "" {
			c.Set(contextkeys.UserIDKey, id)
		}
		c.Next()
	}, handler.ServeWS)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?as=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func startManager(t *testing.T) *WebSocketManager {
	t.Helper()
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go manager.Run(ctx)
	return manager
}

func TestNotifyUserReachesEveryConnection(t *testing.T) {
	manager := startManager(t)
	srv := newTestServer(t, manager)

	tab1 := dial(t, srv, "seller-1")
	tab2 := dial(t, srv, "seller-1")
	other := dial(t, srv, "buyer-1")

	require.Eventually(t, func() bool { return manager.GetClientCount() == 3 }, time.Second, 10*time.Millisecond)

	manager.NotifyUser("seller-1", testEvent{Type: "message.new", ChatID: "c1"})

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		var got testEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, testEvent{Type: "message.new", ChatID: "c1"}, got)
	}

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "buyer must not receive the seller's event")
}

func TestDisconnectUnregisters(t *testing.T) {
	manager := startManager(t)
	srv := newTestServer(t, manager)

	conn := dial(t, srv, "u1")
	require.Eventually(t, func() bool { return manager.IsClientConnected("u1") }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return !manager.IsClientConnected("u1") }, time.Second, 10*time.Millisecond)

	// No connection left: delivery is a no-op.
	manager.NotifyUser("u1", testEvent{Type: "message.new"})
}

func TestServeWSRequiresUser(t *testing.T) {
	manager := startManager(t)
	srv := newTestServer(t, manager)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterAfterShutdown(t *testing.T) {
	manager := NewWebSocketManager()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		manager.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	assert.False(t, manager.Register(&Client{UserID: "late", send: make(chan []byte, 1)}))
	assert.Equal(t, 0, manager.GetClientCount())
}

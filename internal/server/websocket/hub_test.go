package websocket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellisd4/tagsync/internal/server/websocket"
)

func startHub(t *testing.T) *websocket.Hub {
	t.Helper()
	hub, cancel := startHubWithCancel(t)
	t.Cleanup(cancel)
	return hub
}

func startHubWithCancel(t *testing.T) (*websocket.Hub, context.CancelFunc) {
	t.Helper()
	logger := zerolog.Nop()
	hub := websocket.NewHub(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, cancel
}

func dial(t *testing.T, hub *websocket.Hub) *gws.Conn {
	t.Helper()
	conn, _ := dialTracked(t, hub)
	return conn
}

// dialTracked also returns a channel closed when the server side ReadPump
// has returned.
func dialTracked(t *testing.T, hub *websocket.Hub) (*gws.Conn, <-chan struct{}) {
	t.Helper()
	readDone := make(chan struct{})
	upgrader := gws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := websocket.NewClient("test", hub, conn)
		hub.Register(client)
		go client.WritePump()
		go func() {
			client.ReadPump()
			close(readDone)
		}()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return conn, readDone
}

func TestHub_Publish(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub)

	hub.Publish(websocket.TypeTagChanged, map[string]string{"label": "sonarr-hd"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, websocket.TypeTagChanged, msg.Type)
	assert.Equal(t, "sonarr-hd", msg.Data["label"])
}

func TestHub_Disconnect(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := startHub(t)
	hub.Publish(websocket.TypeRunCompleted, nil)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_StopWithConnectedClient(t *testing.T) {
	hub, cancel := startHubWithCancel(t)
	conn, readDone := dialTracked(t, hub)

	cancel()

	select {
	case <-hub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// the server closes the connection, so the peer sees a close frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)

	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
		t.Fatal("read pump still blocked after hub stopped")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_RegisterAfterStop(t *testing.T) {
	hub, cancel := startHubWithCancel(t)
	cancel()
	<-hub.Done()

	registered := make(chan bool, 1)
	go func() {
		registered <- hub.Register(websocket.NewClient("late", hub, nil))
	}()

	select {
	case ok := <-registered:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Register blocked on a stopped hub")
	}
}

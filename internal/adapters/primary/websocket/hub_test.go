package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, "ops", ClientOptions{}, logging.Discard()).Start()
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func report(kind domain.CycleKind) domain.Event {
	return domain.Event{
		Type:    domain.EventCycleFinished,
		Payload: &domain.CycleReport{ID: "c-" + string(kind), Kind: kind, Created: 2},
	}
}

func TestHub_BroadcastsToClients(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(report(domain.CycleTickets)))

	event := readEvent(t, conn)
	assert.Equal(t, domain.EventCycleFinished, event.Type)
	require.NotNil(t, event.Payload)
	assert.Equal(t, domain.CycleTickets, event.Payload.Kind)
	assert.Equal(t, 2, event.Payload.Created)
}

func TestHub_SubscriptionFiltersCycles(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "SUBSCRIBE", "payload": map[string]string{"cycle": "equipment"}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "PING"}))
	// The PONG proves the subscription was handled.
	assert.Equal(t, EventPong, readEvent(t, conn).Type)

	require.NoError(t, hub.Broadcast(report(domain.CycleTickets)))
	require.NoError(t, hub.Broadcast(report(domain.CycleEquipment)))

	event := readEvent(t, conn)
	require.NotNil(t, event.Payload)
	assert.Equal(t, domain.CycleEquipment, event.Payload.Kind)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(logging.Discard())
	// Nobody drains the queue.
	for i := 0; i < 200; i++ {
		assert.NoError(t, hub.Broadcast(report(domain.CycleTickets)))
	}
}

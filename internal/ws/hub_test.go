package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/atelier-backend/internal/notify"
	"github.com/ignatzorin/atelier-backend/internal/ws"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_NotifyReachesConnectedUser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log, _ := test.NewNullLogger()
	hub := ws.NewHub(ctx, log)
	go hub.Run()

	userID := uuid.New()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := ws.NewClient(conn, hub, userID)
		hub.Register(client)
		client.Run(r.Context())
	}))
	defer server.Close()
	defer cancel()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected() == 1 }, time.Second, 5*time.Millisecond)

	err = hub.Notify(context.Background(), notify.Event{
		Type:   notify.EventQuoteAccepted,
		UserID: userID,
		Data:   map[string]any{"order_number": "ORD-1"},
	})
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "quote.accepted", msg.Type)
	assert.Equal(t, "ORD-1", msg.Data["order_number"])

	// Другому пользователю сообщение не уходит, ошибки нет.
	assert.NoError(t, hub.BroadcastToUser(uuid.New(), "noop", nil))
}

func TestHub_StoppedHubRejectsBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log, _ := test.NewNullLogger()
	hub := ws.NewHub(ctx, log)
	cancel()
	hub.Run()

	// Буфер рассылки конечен: после остановки отправка не блокируется навсегда.
	var err error
	for range 64 {
		if err = hub.BroadcastToUser(uuid.New(), "x", nil); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, context.Canceled)
}

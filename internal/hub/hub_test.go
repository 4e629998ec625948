package hub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"strello/internal/hub"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *hub.Hub, boardID uuid.UUID) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Serve(w, r, boardID)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_BroadcastsToBoardSubscribers(t *testing.T) {
	// Arrange
	h := hub.New()
	defer h.Close()
	board, other := uuid.New(), uuid.New()
	conn := dial(t, serve(t, h, board))
	otherConn := dial(t, serve(t, h, other))
	require.Eventually(t, func() bool {
		return h.Subscribers(board) == 1 && h.Subscribers(other) == 1
	}, time.Second, 10*time.Millisecond)

	// Act
	h.BoardChanged(context.Background(), board)

	// Assert
	var msg hub.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, hub.Message{Type: hub.TypeInvalidate, BoardID: board}, msg)

	require.NoError(t, otherConn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := otherConn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	h := hub.New()
	board := uuid.New()
	conn := dial(t, serve(t, h, board))
	require.Eventually(t, func() bool { return h.Subscribers(board) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool { return h.Subscribers(board) == 0 }, time.Second, 10*time.Millisecond)
	h.BoardChanged(context.Background(), board)
}

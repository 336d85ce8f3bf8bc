package api

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allbin/protoboard"
)

type wsMessage struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStream(t *testing.T) {
	panel := newFakePanel()
	panel.snap.State.Counter = 2
	router, _ := setupRouter(t, testHTTPConfig(), panel, false)

	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg.Type)
	var snap protoboard.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, uint64(2), snap.State.Counter)

	panel.updates <- protoboard.Update{Connected: true, Notice: protoboard.NoticeResetConfirmed}
	msg = readMessage(t, conn)
	assert.Equal(t, "update", msg.Type)
	assert.Contains(t, string(msg.Data), `"notice":"reset-confirmed"`)

	panel.updates <- protoboard.Update{Err: errors.New("unplugged")}
	msg = readMessage(t, conn)
	assert.Equal(t, "unplugged", msg.Error)

	close(panel.updates)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestStreamWithoutPanel(t *testing.T) {
	router, _ := setupRouter(t, testHTTPConfig(), nil, false)
	w := do(router, "GET", "/api/ws", "")
	assert.Equal(t, 503, w.Code)
}

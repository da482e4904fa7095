package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/wolfoman-studio/internal/ai"
	"github.com/tbourn/wolfoman-studio/internal/config"
	"github.com/tbourn/wolfoman-studio/internal/domain"
)

func newTestServer(t *testing.T, origins []string) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	store := newTestStore(t)
	responder := ai.NewResponder(nil, ai.NewFallback(1))
	h := NewHandler(hub, store, responder, WithDelay(FixedDelay(20*time.Millisecond)))
	srv := NewServer(hub, h, config.RealtimeConfig{
		SendBuffer:      8,
		WriteTimeout:    time.Second,
		PongTimeout:     5 * time.Second,
		MaxMessageBytes: 1 << 10,
	}, origins)

	r := gin.New()
	r.GET("/ws", srv.Handle)
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ts.Close()
		h.Close()
		hub.Close()
	})
	return ts, hub
}

func dial(t *testing.T, ts *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) ChatMessageOut {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev ChatMessageOut
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestServer_ChatRoundTripOverWebSocket(t *testing.T) {
	ts, hub := newTestServer(t, nil)
	a := dial(t, ts, nil)
	b := dial(t, ts, nil)

	require.NoError(t, a.WriteJSON(map[string]any{"type": "join", "room": "studio", "userId": 1, "projectId": 2}))
	require.NoError(t, b.WriteJSON(map[string]any{"type": "join", "room": "studio", "userId": 3}))
	require.Eventually(t, func() bool { return hub.RoomSize("studio") == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteJSON(map[string]any{"type": "chat_message", "message": "أريد تطبيق جديد"}))

	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		assert.Equal(t, EventChatMessage, ev.Type)
		require.NotNil(t, ev.Message)
		assert.Equal(t, domain.MessageUser, ev.Message.Type)
		assert.Equal(t, "أريد تطبيق جديد", ev.Message.Content)
	}
	for _, conn := range []*websocket.Conn{a, b} {
		ev := readEvent(t, conn)
		require.NotNil(t, ev.Message)
		assert.Equal(t, domain.MessageAI, ev.Message.Type)
		assert.Nil(t, ev.Message.UserID)
		assert.NotEmpty(t, ev.Message.Content)
		assert.Equal(t, ai.FallbackModel, ev.Message.Metadata["aiModel"])
	}
}

func TestServer_BadFramesKeepConnectionOpen(t *testing.T) {
	ts, hub := newTestServer(t, nil)
	conn := dial(t, ts, nil)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "join", "room": "r", "userId": 1}))
	require.Eventually(t, func() bool { return hub.RoomSize("r") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "collaboration", "action": "cursor"}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev CollaborationOut
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "cursor", ev.Action)
}

func TestServer_CloseUnregisters(t *testing.T) {
	ts, hub := newTestServer(t, nil)
	conn := dial(t, ts, nil)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_OriginAllowList(t *testing.T) {
	ts, _ := newTestServer(t, []string{"https://studio.example"})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	dial(t, ts, http.Header{"Origin": {"https://studio.example"}})
	dial(t, ts, nil)
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	assert.True(t, originChecker(nil)(req("https://any.example")))
	assert.True(t, originChecker([]string{"*"})(req("https://any.example")))

	check := originChecker([]string{"https://A.example/"})
	assert.True(t, check(req("https://a.example")))
	assert.True(t, check(req("")))
	assert.False(t, check(req("https://b.example")))
	assert.False(t, check(req("::bad")))
}

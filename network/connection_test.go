package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoServer greets with a welcome built from the query and echoes every frame back.
func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		q := r.URL.Query()
		welcome := map[string]interface{}{
			"type": "welcome",
			"payload": map[string]interface{}{
				"roomId":      q.Get("room"),
				"token":       q.Get("token"),
				"displayName": q.Get("name"),
				"seatIndex":   0,
			},
		}
		if err := conn.WriteJSON(welcome); err != nil {
			return
		}
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func TestWSDialerRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	rawURL, err := BuildURL(base, Params{Name: "Al", Token: "token-1", Auth: "s", Room: "r9"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := WSDialer{Heartbeat: time.Minute}.Dial(ctx, rawURL)
	require.NoError(t, err)
	defer conn.Close()
	require.NotNil(t, conn.RemoteAddr())
	assert.Equal(t, strings.TrimPrefix(srv.URL, "http://"), conn.RemoteAddr().String())

	data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg, err := Decode(data)
	require.NoError(t, err)
	w, ok := msg.(Welcome)
	require.True(t, ok)
	assert.Equal(t, "r9", w.RoomID)
	assert.Equal(t, "token-1", w.Token)
	assert.Equal(t, "Al", w.DisplayName)

	require.NoError(t, conn.WriteJSON(JoinRoom("r2")))
	data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"room_join","payload":{"roomId":"r2"}}`, string(data))

	assert.NoError(t, conn.Close())
	assert.NoError(t, conn.Close())
}

func TestWSDialerRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := WSDialer{}.Dial(ctx, base)
	assert.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	got, err := BuildURL("ws://host:8080/ws?v=1", Params{Name: "A B", Token: "t"})
	require.NoError(t, err)
	assert.Contains(t, got, "name=A+B")
	assert.Contains(t, got, "token=t")
	assert.Contains(t, got, "v=1")
	assert.NotContains(t, got, "room=")
	assert.NotContains(t, got, "auth=")

	_, err = BuildURL("://bad", Params{})
	assert.Error(t, err)
}

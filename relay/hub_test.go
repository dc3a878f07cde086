package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gear6io/gpsd4go/client"
	"github.com/gear6io/gpsd4go/gpsdtest"
	"github.com/gear6io/gpsd4go/pkg/errors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func dialPeer(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	return string(data)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	a := dialPeer(t, srv)
	b := dialPeer(t, srv)
	assert.Eventually(t, func() bool { return hub.Peers() == 2 }, waitFor, tick)

	hub.Broadcast([]byte(`{"class":"TPV","mode":3}`))

	assert.JSONEq(t, `{"class":"TPV","mode":3}`, readText(t, a))
	assert.JSONEq(t, `{"class":"TPV","mode":3}`, readText(t, b))

	require.NoError(t, a.Close())
	assert.Eventually(t, func() bool { return hub.Peers() == 1 }, waitFor, tick)
}

func TestHubRelaysClientMessages(t *testing.T) {
	gpsd := gpsdtest.NewServer(t)

	opts := client.DefaultOptions()
	opts.Addr = gpsd.Addr()
	c := client.NewWithOptions(opts, zerolog.Nop())
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()
	require.True(t, gpsd.WaitForClients(1, waitFor))

	hub := NewHub(zerolog.Nop())
	require.NoError(t, hub.Attach(c))
	err := hub.Attach(c)
	assert.True(t, errors.Is(err, ErrAlreadyAttached))

	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	peer := dialPeer(t, srv)
	assert.Eventually(t, func() bool { return hub.Peers() == 1 }, waitFor, tick)

	gpsd.Send(`{"class":"TPV","device":"/dev/ttyUSB0","mode":3,"lat":42.5,"lon":27.4}`)

	got := readText(t, peer)
	assert.JSONEq(t, `{"class":"TPV","device":"/dev/ttyUSB0","mode":3,"lat":42.5,"lon":27.4}`, got)

	hub.Detach()
	gpsd.Send(`{"class":"SKY"}`)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = peer.ReadMessage()
	assert.Error(t, err, "detached hub relays nothing")
}

func TestHubDropsSlowPeers(t *testing.T) {
	hub := NewHub(zerolog.Nop(), WithSendBuffer(1))

	p := &peer{id: "slow", send: make(chan []byte, 1)}
	require.True(t, hub.add(p))

	hub.Broadcast([]byte("one"))
	assert.Equal(t, 1, hub.Peers())

	hub.Broadcast([]byte("two"))
	assert.Equal(t, 0, hub.Peers())

	data, ok := <-p.send
	assert.True(t, ok)
	assert.Equal(t, "one", string(data))
	_, ok = <-p.send
	assert.False(t, ok, "send queue closed")
}

func TestHubClose(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	peer := dialPeer(t, srv)
	assert.Eventually(t, func() bool { return hub.Peers() == 1 }, waitFor, tick)

	hub.Close()
	assert.Zero(t, hub.Peers())

	require.NoError(t, peer.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err := peer.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	err = hub.Attach(client.NewWithOptions(client.DefaultOptions(), zerolog.Nop()))
	assert.True(t, errors.Is(err, ErrHubClosed))
}

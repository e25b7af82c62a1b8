package notify

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bthost-project/bthost-go/pkg/device"
	"github.com/bthost-project/bthost-go/pkg/engine"
	"github.com/bthost-project/bthost-go/pkg/profile"
)

func sampleTransition() engine.Transition {
	return engine.Transition{
		Device:  device.MustParseAddress("00:11:22:33:44:55"),
		Profile: profile.A2DPSink,
		From:    engine.StateConnecting,
		To:      engine.StateConnected,
	}
}

func TestFunc_OnTransition(t *testing.T) {
	var got []engine.Transition
	n := Func(func(tr engine.Transition) {
		got = append(got, tr)
	})

	n.OnTransition(sampleTransition())
	require.Len(t, got, 1)
	assert.Equal(t, engine.StateConnected, got[0].To)
}

func TestMulti_FansOutInOrder(t *testing.T) {
	var order []string
	first := Func(func(engine.Transition) { order = append(order, "first") })
	second := Func(func(engine.Transition) { order = append(order, "second") })

	m := NewMulti(first, nil, second)
	m.OnTransition(sampleTransition())

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHub_BroadcastsToWebsocketClient(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	hub.OnTransition(sampleTransition())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg TransitionMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "connection_state", msg.Type)
	assert.Equal(t, "00:11:22:33:44:55", msg.Device)
	assert.Equal(t, profile.A2DPSink.String(), msg.Profile)
	assert.Equal(t, "CONNECTING", msg.From)
	assert.Equal(t, "CONNECTED", msg.To)
	assert.NotZero(t, msg.Timestamp)
}

func TestHub_DroppedClientRemoved(t *testing.T) {
	hub := NewHub()
	t.Cleanup(hub.Close)

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		hub.OnTransition(sampleTransition())
		return hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "closed client never dropped")
}

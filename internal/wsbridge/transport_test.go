package wsbridge

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
)

// newHostServer starts a WebSocket server that passes every frame it receives
// to handle and writes back whatever handle returns.
func newHostServer(t *testing.T, handle func(msg map[string]any) []any) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			for _, reply := range handle(msg) {
				if s, ok := reply.(string); ok {
					if err := conn.WriteMessage(websocket.TextMessage, []byte(s)); err != nil {
						return
					}

					continue
				}

				if err := conn.WriteJSON(reply); err != nil {
					return
				}
			}
		}
	}))

	t.Cleanup(srv.Close)

	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestTransport_RoundTrip(t *testing.T) {
	srv := newHostServer(t, func(msg map[string]any) []any {
		return []any{
			"not json",
			map[string]any{"messageId": msg["messageId"], "code": 200, "cmd": msg["cmd"]},
		}
	})

	tr := New(slog.Default(), Config{URL: wsURL(srv)})

	received := make(chan map[string]any, 4)
	remove := tr.Listen(func(msg map[string]any) { received <- msg })

	defer remove()

	require.False(t, tr.IsReady())
	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Start(context.Background()))

	defer tr.Close()

	require.True(t, tr.IsReady())
	require.NoError(t, tr.SendMessage(context.Background(), []byte(`{"cmd":"getLanguage","messageId":"tok-1"}`)))

	select {
	case msg := <-received:
		require.Equal(t, "tok-1", msg["messageId"])
		require.Equal(t, "getLanguage", msg["cmd"])
		require.InDelta(t, 200, msg["code"], 0)
	case <-time.After(5 * time.Second):
		t.Fatal("reply not received")
	}
}

func TestTransport_ConcurrentSends(t *testing.T) {
	var (
		mu    sync.Mutex
		count int
	)

	srv := newHostServer(t, func(map[string]any) []any {
		mu.Lock()
		count++
		mu.Unlock()

		return nil
	})

	tr := New(slog.Default(), Config{URL: wsURL(srv), PingInterval: -1})
	require.NoError(t, tr.Start(context.Background()))

	defer tr.Close()

	var wg sync.WaitGroup

	for range 20 {
		wg.Go(func() {
			require.NoError(t, tr.SendMessage(context.Background(), []byte(`{"cmd":"getLanguage"}`)))
		})
	}

	wg.Wait()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return count == 20
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTransport_DialFailure(t *testing.T) {
	tr := New(slog.Default(), Config{URL: "ws://127.0.0.1:1/unreachable"})

	err := tr.Start(context.Background())

	var connErr *errors.ConnectionError

	require.ErrorAs(t, err, &connErr)
	require.Equal(t, "ws://127.0.0.1:1/unreachable", connErr.Endpoint)
	require.False(t, tr.IsReady())
}

func TestTransport_ServerGoesAway(t *testing.T) {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}))
	defer srv.Close()

	tr := New(slog.Default(), Config{URL: wsURL(srv)})
	require.NoError(t, tr.Start(context.Background()))

	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("transport did not notice the closed socket")
	}

	require.False(t, tr.IsReady())
	require.ErrorIs(t, tr.Err(), errors.ErrTransportClosed)
	require.NoError(t, tr.Close())
}

func TestTransport_Close(t *testing.T) {
	srv := newHostServer(t, func(map[string]any) []any { return nil })

	tr := New(slog.Default(), Config{URL: wsURL(srv)})
	require.NoError(t, tr.Start(context.Background()))

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	require.False(t, tr.IsReady())

	require.ErrorIs(t, tr.SendMessage(context.Background(), []byte(`{}`)), errors.ErrTransportClosed)
	require.ErrorIs(t, tr.Start(context.Background()), errors.ErrTransportClosed)
}

func TestTransport_NotStarted(t *testing.T) {
	tr := New(slog.Default(), Config{URL: "ws://127.0.0.1:1"})

	require.ErrorIs(t, tr.SendMessage(context.Background(), []byte(`{}`)), errors.ErrTransportNotConnected)
	require.NoError(t, tr.Close())
}

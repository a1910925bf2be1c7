package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
)

func collector() (SettleFunc, <-chan message.Response) {
	ch := make(chan message.Response, 4)

	return func(r message.Response) { ch <- r }, ch
}

func timeoutResp(token string) func() message.Response {
	return func() message.Response {
		return message.Fail(message.CodeTimeout, "getLanguage", token, "request timeout after 1s")
	}
}

func receive(t *testing.T, ch <-chan message.Response) message.Response {
	t.Helper()

	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for settlement")

		return message.Response{}
	}
}

func TestRegistry_SettleOnce(t *testing.T) {
	reg := New(clock.NewMock())
	settle, ch := collector()

	require.NoError(t, reg.Register("t1", settle, time.Second, timeoutResp("t1")))
	require.True(t, reg.Has("t1"))

	ok := reg.Settle("t1", message.Response{Code: message.CodeSuccess, MessageID: "t1"})
	require.True(t, ok)
	require.False(t, reg.Settle("t1", message.Response{Code: message.CodeSuccess}))

	resp := receive(t, ch)
	require.Equal(t, message.CodeSuccess, resp.Code)
	require.Equal(t, 0, reg.Len())
	require.Empty(t, ch)
}

func TestRegistry_DuplicateToken(t *testing.T) {
	reg := New(clock.NewMock())
	settle, _ := collector()

	require.NoError(t, reg.Register("dup", settle, 0, nil))
	require.ErrorIs(t, reg.Register("dup", settle, 0, nil), errors.ErrDuplicateToken)
	require.Equal(t, 1, reg.Len())
}

func TestRegistry_Timeout(t *testing.T) {
	mock := clock.NewMock()
	reg := New(mock)
	settle, ch := collector()

	require.NoError(t, reg.Register("t1", settle, time.Second, timeoutResp("t1")))

	mock.Add(999 * time.Millisecond)
	require.True(t, reg.Has("t1"))

	mock.Add(time.Millisecond)

	resp := receive(t, ch)
	require.Equal(t, message.CodeTimeout, resp.Code)
	require.Equal(t, "t1", resp.MessageID)
	require.False(t, reg.Has("t1"))

	// A late reply is ignored.
	require.False(t, reg.Settle("t1", message.Response{Code: message.CodeSuccess}))
}

func TestRegistry_SettleStopsTimer(t *testing.T) {
	mock := clock.NewMock()
	reg := New(mock)
	settle, ch := collector()

	require.NoError(t, reg.Register("t1", settle, time.Second, timeoutResp("t1")))
	require.True(t, reg.Settle("t1", message.Response{Code: message.CodeSuccess}))

	mock.Add(5 * time.Second)

	require.Equal(t, message.CodeSuccess, receive(t, ch).Code)

	select {
	case r := <-ch:
		t.Fatalf("unexpected second settlement: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRegistry_NoTimeout(t *testing.T) {
	mock := clock.NewMock()
	reg := New(mock)
	settle, _ := collector()

	require.NoError(t, reg.Register("open", settle, 0, nil))

	mock.Add(time.Hour)

	require.True(t, reg.Has("open"))
}

func TestRegistry_CancelAndRemove(t *testing.T) {
	mock := clock.NewMock()
	reg := New(mock)
	settle, ch := collector()

	require.NoError(t, reg.Register("t1", settle, time.Second, timeoutResp("t1")))
	require.True(t, reg.CancelAndRemove("t1"))
	require.False(t, reg.CancelAndRemove("t1"))

	mock.Add(2 * time.Second)

	select {
	case r := <-ch:
		t.Fatalf("cancelled call settled: %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestRegistry_SettleAll(t *testing.T) {
	reg := New(clock.NewMock())

	var settled atomic.Int32

	for i := range 5 {
		token := fmt.Sprintf("t%d", i)
		require.NoError(t, reg.Register(token, func(r message.Response) {
			require.Equal(t, token, r.MessageID)
			settled.Add(1)
		}, time.Second, timeoutResp(token)))
	}

	n := reg.SettleAll(func(token string) message.Response {
		return message.Fail(message.CodeTimeout, "", token, "client destroyed")
	})

	require.Equal(t, 5, n)
	require.Equal(t, int32(5), settled.Load())
	require.Equal(t, 0, reg.Len())
}

func TestRegistry_ConcurrentSettleAndTimeout(t *testing.T) {
	for range 100 {
		mock := clock.NewMock()
		reg := New(mock)

		var count atomic.Int32

		require.NoError(t, reg.Register("race", func(message.Response) {
			count.Add(1)
		}, time.Millisecond, timeoutResp("race")))

		var wg sync.WaitGroup

		wg.Go(func() { reg.Settle("race", message.Response{Code: message.CodeSuccess}) })
		wg.Go(func() { mock.Add(time.Millisecond) })
		wg.Go(func() {
			reg.SettleAll(func(token string) message.Response {
				return message.Fail(message.CodeTimeout, "", token, "client destroyed")
			})
		})

		wg.Wait()

		require.Eventually(t, func() bool {
			return count.Load() == 1
		}, time.Second, time.Millisecond)
		require.Equal(t, int32(1), count.Load())
	}
}

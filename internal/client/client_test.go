package client

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/miniapp-bridge-go/internal/command"
	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/errors"
	"github.com/wagiedev/miniapp-bridge-go/internal/hostsim"
	"github.com/wagiedev/miniapp-bridge-go/internal/message"
	"github.com/wagiedev/miniapp-bridge-go/internal/metrics"
	"github.com/wagiedev/miniapp-bridge-go/internal/protocol"
)

func newTestClient(t *testing.T, host *hostsim.Host, opts ...config.Option) *Client {
	t.Helper()

	opts = append([]config.Option{
		func(o *config.Options) {
			o.Logger = slog.Default()
			o.Transport = host
		},
	}, opts...)

	c := New(config.Apply(opts...))
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func withClock(clk clock.Clock) config.Option {
	return func(o *config.Options) { o.Clock = clk }
}

func awaitPosted(t *testing.T, host *hostsim.Host) map[string]any {
	t.Helper()

	select {
	case msg := <-host.Received():
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for posted message")

		return nil
	}
}

func awaitResponse(t *testing.T, ch <-chan message.Response) message.Response {
	t.Helper()

	select {
	case resp := <-ch:
		return resp
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")

		return message.Response{}
	}
}

func dispatchAsync(c *Client, ctx context.Context, cmd string, args ...message.Payload) <-chan message.Response {
	out := make(chan message.Response, 1)

	go func() { out <- c.Dispatch(ctx, cmd, args...) }()

	return out
}

func TestClient_OpenURL_Unreachable(t *testing.T) {
	host := hostsim.New(nil)
	host.SetReady(false)

	c := newTestClient(t, host)

	resp := c.OpenURL(context.Background(), command.OpenURLRequest{URL: "https://example.com"})

	require.Equal(t, message.CodeInvalidPayload, resp.Code)
	require.Equal(t, protocol.MsgHostUnreachable, resp.Message)
	require.Equal(t, command.OpenURL, resp.Cmd)
	require.NotEmpty(t, resp.MessageID)
	require.Nil(t, resp.Raw)
	require.Zero(t, c.Pending())
	require.Empty(t, host.Posted())
}

func TestClient_CopyToClipboard_EmptyText(t *testing.T) {
	host := hostsim.New(hostsim.Echo())
	c := newTestClient(t, host)

	resp := c.CopyToClipboard(context.Background(), command.CopyToClipboardRequest{Text: "   "})

	require.Equal(t, message.CodeInvalidPayload, resp.Code)
	require.Equal(t, "text is required", resp.Message)
	require.Empty(t, host.Posted())
}

func TestClient_Rejection_CallerMessageID(t *testing.T) {
	host := hostsim.New(nil)
	c := newTestClient(t, host)

	resp := c.Dispatch(context.Background(), command.OpenURL, message.Payload{
		"url":       "http://example.com",
		"messageId": "caller-1",
	})

	require.Equal(t, message.CodeInvalidPayload, resp.Code)
	require.Equal(t, "caller-1", resp.MessageID)
	require.Empty(t, host.Posted())
}

func TestClient_CheckServiceStatus_RoundTrip(t *testing.T) {
	var raw map[string]any

	host := hostsim.New(func(msg map[string]any) []map[string]any {
		raw = hostsim.Reply(msg, 200, map[string]any{"status": "active"})

		return []map[string]any{raw}
	})
	c := newTestClient(t, host)

	resp := c.CheckServiceStatus(context.Background(), command.Signature{Content: "c", Signature: "s"})

	require.True(t, resp.IsSuccess())
	require.Equal(t, raw, resp.Raw)
	require.Equal(t, map[string]any{"status": "active"}, resp.DataMap())

	posted := host.Posted()
	require.Len(t, posted, 1)
	require.Equal(t, map[string]any{
		"cmd":       command.CheckServiceStatus,
		"messageId": resp.MessageID,
		"certificate": map[string]any{
			"content":   "c",
			"signature": "s",
		},
	}, posted[0])
}

func TestClient_RegisterService_Certificate(t *testing.T) {
	host := hostsim.New(hostsim.Success(nil))
	c := newTestClient(t, host)

	resp := c.RegisterService(context.Background(), command.RegisterServiceRequest{
		ServiceKey:  "svc",
		Certificate: command.Signature{Content: "c", Signature: "s"},
	})
	require.True(t, resp.IsSuccess())

	posted := host.Posted()
	require.Len(t, posted, 1)
	require.Equal(t, "svc", posted[0]["serviceKey"])
	require.Equal(t, map[string]any{"content": "c", "signature": "s"}, posted[0]["certificate"])

	missing := c.Dispatch(context.Background(), command.RegisterService, message.Payload{"serviceKey": "svc"})
	require.Equal(t, message.CodeMissingCertificate, missing.Code)
	require.Len(t, host.Posted(), 1)
}

func TestClient_Timeout(t *testing.T) {
	mock := clock.NewMock()
	host := hostsim.New(nil)
	c := newTestClient(t, host, withClock(mock))

	ch := dispatchAsync(c, context.Background(), command.GetLanguage)
	posted := awaitPosted(t, host)

	mock.Add(30*time.Second - time.Millisecond)

	select {
	case resp := <-ch:
		t.Fatalf("settled before the timeout: %+v", resp)
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(time.Millisecond)

	resp := awaitResponse(t, ch)
	require.Equal(t, message.CodeTimeout, resp.Code)
	require.Equal(t, posted["messageId"], resp.MessageID)
	require.Equal(t, "request timeout after 30s", resp.Message)
	require.Zero(t, c.Pending())
}

func TestClient_CustomTimeout(t *testing.T) {
	mock := clock.NewMock()
	host := hostsim.New(nil)
	c := newTestClient(t, host, withClock(mock), func(o *config.Options) { o.Timeout = 5 * time.Second })

	ch := dispatchAsync(c, context.Background(), command.GetAccount, message.Payload{})
	awaitPosted(t, host)

	mock.Add(5 * time.Second)

	resp := awaitResponse(t, ch)
	require.Equal(t, "request timeout after 5s", resp.Message)
}

func TestClient_DispatchWithTimeout(t *testing.T) {
	mock := clock.NewMock()
	host := hostsim.New(nil)
	c := newTestClient(t, host, withClock(mock))

	out := make(chan message.Response, 1)

	go func() {
		out <- c.DispatchWithTimeout(context.Background(), command.GetLanguage, time.Second)
	}()

	awaitPosted(t, host)
	mock.Add(time.Second)

	require.Equal(t, "request timeout after 1s", awaitResponse(t, out).Message)
}

func TestClient_NoTimeoutCommands(t *testing.T) {
	mock := clock.NewMock()
	host := hostsim.New(nil)
	c := newTestClient(t, host, withClock(mock))

	ch := dispatchAsync(c, context.Background(), command.ScanQRCode)
	posted := awaitPosted(t, host)

	mock.Add(time.Hour)

	select {
	case resp := <-ch:
		t.Fatalf("no-timeout command settled: %+v", resp)
	case <-time.After(20 * time.Millisecond):
	}

	require.Equal(t, 1, c.Pending())

	host.Inject(hostsim.Reply(posted, 200, "result"))

	resp := awaitResponse(t, ch)
	require.True(t, resp.IsSuccess())
	require.Equal(t, "result", resp.Data)
}

func TestClient_UnknownCommandPassThrough(t *testing.T) {
	host := hostsim.New(hostsim.Success(nil))
	c := newTestClient(t, host)

	resp := c.Dispatch(context.Background(), "vibrate", message.Payload{"pattern": []any{1.0, 2.0}})
	require.True(t, resp.IsSuccess())

	posted := host.Posted()
	require.Len(t, posted, 1)
	require.Equal(t, "vibrate", posted[0]["cmd"])
	require.Equal(t, []any{1.0, 2.0}, posted[0]["pattern"])
}

func TestClient_DistinctTokens(t *testing.T) {
	host := hostsim.New(hostsim.Echo())
	c := newTestClient(t, host)

	var wg sync.WaitGroup

	responses := make([]message.Response, 20)

	for i := range responses {
		wg.Go(func() {
			responses[i] = c.GetLanguage(context.Background())
		})
	}

	wg.Wait()

	seen := make(map[string]bool)

	for _, resp := range responses {
		require.True(t, resp.IsSuccess())
		require.Equal(t, resp.MessageID, resp.DataMap()["messageId"])
		require.False(t, seen[resp.MessageID])

		seen[resp.MessageID] = true
	}
}

func TestClient_SharedListener(t *testing.T) {
	host := hostsim.New(hostsim.Echo())

	a := New(config.Apply(func(o *config.Options) { o.Transport = host }))
	b := New(config.Apply(func(o *config.Options) { o.Transport = host }))

	require.True(t, protocol.Installed(host))
	require.Equal(t, 2, protocol.Attachments(host))
	require.Equal(t, 1, host.Listeners())

	// Each client only settles its own calls.
	require.True(t, a.GetLanguage(context.Background()).IsSuccess())
	require.True(t, b.GetLanguage(context.Background()).IsSuccess())

	require.NoError(t, a.Close())
	require.True(t, protocol.Installed(host))
	require.Equal(t, 1, host.Listeners())

	require.True(t, b.GetLanguage(context.Background()).IsSuccess())

	require.NoError(t, b.Close())
	require.False(t, protocol.Installed(host))
	require.Zero(t, host.Listeners())
}

func TestClient_Close_SettlesPending(t *testing.T) {
	host := hostsim.New(nil)
	c := newTestClient(t, host)

	first := dispatchAsync(c, context.Background(), command.GetLanguage)
	second := dispatchAsync(c, context.Background(), command.ScanQRCode)

	awaitPosted(t, host)
	awaitPosted(t, host)
	require.Eventually(t, func() bool { return c.Pending() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	for _, ch := range []<-chan message.Response{first, second} {
		resp := awaitResponse(t, ch)
		require.Equal(t, message.CodeTimeout, resp.Code)
		require.Equal(t, protocol.MsgClientDestroyed, resp.Message)
		require.NotEmpty(t, resp.Cmd)
	}

	require.Zero(t, c.Pending())

	after := c.GetLanguage(context.Background())
	require.Equal(t, message.CodeTimeout, after.Code)
	require.Equal(t, protocol.MsgClientDestroyed, after.Message)
	require.Len(t, host.Posted(), 2)
}

func TestClient_ContextCancel(t *testing.T) {
	host := hostsim.New(nil)
	c := newTestClient(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	ch := dispatchAsync(c, ctx, command.GetLanguage)

	posted := awaitPosted(t, host)
	cancel()

	resp := awaitResponse(t, ch)
	require.Equal(t, message.CodeTimeout, resp.Code)
	require.Equal(t, context.Canceled.Error(), resp.Message)
	require.Equal(t, posted["messageId"], resp.MessageID)
	require.Zero(t, c.Pending())
}

func TestClient_DispatchAsync(t *testing.T) {
	host := hostsim.New(hostsim.Success("en"))
	c := newTestClient(t, host)

	resp := awaitResponse(t, c.DispatchAsync(command.GetLanguage))
	require.True(t, resp.IsSuccess())
	require.Equal(t, "en", resp.Data)
}

func TestClient_HostError(t *testing.T) {
	host := hostsim.New(func(msg map[string]any) []map[string]any {
		return []map[string]any{hostsim.Fail(msg, 4004, "not supported")}
	})
	c := newTestClient(t, host)

	resp := c.GetSafeAreaInsets(context.Background())
	require.Equal(t, message.CodeMethodNotFound, resp.Code)
	require.Equal(t, "not supported", resp.Message)
	require.Error(t, resp.Err())
}

func TestClient_Metrics(t *testing.T) {
	rec := metrics.NewRecorder(nil)
	host := hostsim.New(hostsim.Success(nil))
	c := newTestClient(t, host, func(o *config.Options) { o.Metrics = rec })

	c.GetLanguage(context.Background())
	c.CopyToClipboard(context.Background(), command.CopyToClipboardRequest{})

	host.SetReady(false)
	c.GetLanguage(context.Background())

	calls := rec.Collectors()[0]
	require.Equal(t, 3, testutil.CollectAndCount(calls))
	require.InDelta(t, 0, testutil.ToFloat64(rec.Collectors()[1]), 0)
}

func TestClient_Start(t *testing.T) {
	host := hostsim.New(nil)
	c := newTestClient(t, host)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, host.Close())

	other := newTestClient(t, host)
	require.Error(t, other.Start(context.Background()))

	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Start(context.Background()), errors.ErrClientClosed)
}

func TestClient_Commands(t *testing.T) {
	c := newTestClient(t, hostsim.New(nil))

	require.Len(t, c.Commands(), 17)

	entry, ok := c.Entry(command.SaveImage)
	require.True(t, ok)
	require.Equal(t, command.ConventionPayload, entry.Convention)
	require.NotEmpty(t, c.ID())
}

func TestClient_ConcurrentCloseAndDispatch(t *testing.T) {
	for range 100 {
		host := hostsim.New(hostsim.Echo())
		c := New(config.Apply(func(o *config.Options) { o.Transport = host }))

		var wg sync.WaitGroup

		for range 4 {
			wg.Go(func() {
				resp := c.GetLanguage(context.Background())
				assert.Contains(t, []message.Code{message.CodeSuccess, message.CodeTimeout}, resp.Code)
			})
		}

		wg.Go(func() { _ = c.Close() })
		wg.Wait()

		require.Zero(t, c.Pending())
		require.NoError(t, host.Close())
	}
}

type panickingTokens struct{}

func (panickingTokens) Next() string { panic("token source exhausted") }

func TestClient_DispatchFaultRecovered(t *testing.T) {
	rec := metrics.NewRecorder(nil)
	host := hostsim.New(nil)
	c := newTestClient(t, host, func(o *config.Options) {
		o.Tokens = panickingTokens{}
		o.Metrics = rec
	})

	resp := c.GetLanguage(context.Background())

	require.Equal(t, message.CodeMethodNotFound, resp.Code)
	require.Equal(t, command.GetLanguage, resp.Cmd)
	require.Contains(t, resp.Message, "token source exhausted")
	require.Empty(t, host.Posted())
	require.Zero(t, c.Pending())
	require.InDelta(t, 1, testutil.ToFloat64(rec.Collectors()[0].(*prometheus.CounterVec).WithLabelValues(command.GetLanguage, metrics.OutcomeInternal)), 0)
}

func TestClient_SendServiceMessage_NilContent(t *testing.T) {
	host := hostsim.New(hostsim.Success(nil))
	c := newTestClient(t, host)
	sig := command.Signature{Content: "c", Signature: "s"}

	resp := c.SendServiceMessage(context.Background(), command.SendServiceMessageRequest{
		Type:        "HTTP",
		Certificate: sig,
	})
	require.Equal(t, message.CodeInvalidPayload, resp.Code)
	require.Nil(t, resp.Raw)

	resp = c.Dispatch(context.Background(), command.SendServiceMessage,
		message.Payload{"content": map[string]any(nil), "type": "HTTP"}, sig.Fields())
	require.Equal(t, message.CodeInvalidPayload, resp.Code)

	resp = c.SetExtendedData(context.Background(), command.SetExtendedDataRequest{Extend: map[string]any(nil)})
	require.Equal(t, message.CodeInvalidPayload, resp.Code)

	require.Empty(t, host.Posted())
}

// sliceTransport is a transport value that cannot be used as a map key.
type sliceTransport struct {
	*hostsim.Host
	routes []string
}

func TestClient_NonComparableTransport(t *testing.T) {
	host := hostsim.New(hostsim.Success(map[string]any{"status": "active"}))
	transport := sliceTransport{Host: host, routes: []string{"primary"}}

	var c1, c2 *Client

	require.NotPanics(t, func() {
		c1 = New(config.Apply(func(o *config.Options) { o.Logger = slog.Default(); o.Transport = transport }))
		c2 = New(config.Apply(func(o *config.Options) { o.Logger = slog.Default(); o.Transport = transport }))
	})

	t.Cleanup(func() {
		_ = c1.Close()
		_ = c2.Close()
	})

	sig := command.Signature{Content: "c", Signature: "s"}

	resp := c1.CheckServiceStatus(context.Background(), sig)
	require.True(t, resp.IsSuccess())

	resp = c2.CheckServiceStatus(context.Background(), sig)
	require.True(t, resp.IsSuccess())

	require.False(t, protocol.Installed(transport))
}

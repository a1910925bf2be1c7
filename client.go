package bridge

import (
	"context"
	"time"
)

// Client calls host commands and settles each call with exactly one Response.
//
// Every client owns its own pending calls. Clients on the same Transport
// share one inbound listener, installed with the first client and removed
// with the last.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with
// NewClient(). Calls made after Close resolve with a "client destroyed"
// Response without reaching the host.
//
// Example usage:
//
//	client := NewClient(WithTransport(transport))
//	defer client.Close()
//
//	resp := client.GetLanguage(ctx)
//	if resp.IsSuccess() {
//	    fmt.Println(resp.Data)
//	}
type Client interface {
	// ID returns the client instance identifier.
	ID() string

	// Start starts the transport. Calls start it lazily, so Start is only
	// needed to surface transport errors early.
	// Returns HostNotFoundError if the host executable is missing and
	// ConnectionError when the host cannot be dialed.
	Start(ctx context.Context) error

	// Dispatch validates args for cmd, sends it and waits for the Response.
	// Commands unknown to the client are forwarded with args[0] unchanged.
	Dispatch(ctx context.Context, cmd string, args ...Payload) Response

	// DispatchWithTimeout is Dispatch with a timeout for this call only.
	// A non-positive timeout waits indefinitely.
	DispatchWithTimeout(ctx context.Context, cmd string, timeout time.Duration, args ...Payload) Response

	// DispatchAsync runs Dispatch in the background. The channel receives
	// exactly one Response.
	DispatchAsync(cmd string, args ...Payload) <-chan Response

	ConnectCocoPay(ctx context.Context, req ConnectCocoPayRequest) Response
	OpenURL(ctx context.Context, req OpenURLRequest) Response
	CopyToClipboard(ctx context.Context, req CopyToClipboardRequest) Response
	SaveImage(ctx context.Context, req SaveImageRequest) Response
	GetAccount(ctx context.Context, req GetAccountRequest) Response
	SetExtendedData(ctx context.Context, req SetExtendedDataRequest) Response
	GetExtendedData(ctx context.Context) Response
	GenerateSignature(ctx context.Context, req MessageRequest) Response
	VerifySignature(ctx context.Context, req VerifySignatureRequest) Response
	Encrypt(ctx context.Context, req MessageRequest) Response
	Decrypt(ctx context.Context, req DecryptRequest) Response
	RegisterService(ctx context.Context, req RegisterServiceRequest) Response
	SendServiceMessage(ctx context.Context, req SendServiceMessageRequest) Response
	CheckServiceStatus(ctx context.Context, sig Signature) Response
	GetSafeAreaInsets(ctx context.Context) Response
	GetLanguage(ctx context.Context) Response
	ScanQRCode(ctx context.Context) Response

	// Pending returns the number of calls waiting for a reply.
	Pending() int

	// Commands returns the names of the commands validated locally.
	Commands() []string

	// Close settles every pending call with a "client destroyed" Response
	// and detaches from the shared listener. The transport stays open.
	// Safe to call multiple times.
	Close() error
}

// NewClient creates a client.
//
//	client := NewClient(
//	    WithLogger(slog.Default()),
//	    WithTimeout(10*time.Second),
//	)
func NewClient(opts ...Option) Client {
	return newClientImpl(applyOptions(opts))
}

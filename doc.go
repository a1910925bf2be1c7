// Package bridge lets Go programs call the commands of a miniapp host.
//
// A miniapp runs inside a host application and asks the host to do things
// on its behalf: open a URL, copy text, sign a message, talk to a registered
// service. Each command is posted to the host as one JSON object carrying a
// fresh messageId, and the host answers with an object echoing that id.
// This package validates inputs locally, correlates replies with calls,
// times calls out, and settles every call with exactly one Response.
//
// # Basic Usage
//
//	client := bridge.NewClient(
//	    bridge.WithLogger(slog.Default()),
//	    bridge.WithTransport(bridge.NewHostTransport(nil, bridge.HostConfig{
//	        Command: "miniapp-host --stdio",
//	    })),
//	)
//	defer client.Close()
//
//	resp := client.OpenURL(ctx, bridge.OpenURLRequest{URL: "https://example.com"})
//	if err := resp.Err(); err != nil {
//	    log.Printf("openURL failed: %v", err)
//	}
//
// # Responses, Not Errors
//
// Calls never return Go errors. Local validation failures, an unreachable
// host, timeouts and a closed client all come back as a Response with a
// non-200 Code. Use Response.IsSuccess or Response.Err to branch:
//
//	resp := client.CopyToClipboard(ctx, bridge.CopyToClipboardRequest{Text: ""})
//	// resp.Code == bridge.CodeInvalidPayload, nothing was sent to the host
//
// Host replies are passed through unmodified in Response.Raw.
//
// # Transports
//
// By default a client talks to its host over newline-delimited JSON on the
// process stdin and stdout. Other transports spawn the host as a subprocess,
// dial it over WebSocket, or exchange messages through NATS subjects. All
// clients created on the same Transport share a single inbound listener.
//
// # Timeouts
//
// Every call waits up to 30 seconds for its reply unless configured with
// WithTimeout. openURL and scanQRCode wait indefinitely since hosts do not
// always answer them; see WithNoTimeoutCommands.
//
// # Error Handling
//
// Transport setup returns typed errors:
//
//	if err := client.Start(ctx); err != nil {
//	    var notFound *bridge.HostNotFoundError
//	    if errors.As(err, &notFound) {
//	        // host executable is missing
//	    }
//	}
package bridge

package bridge

import (
	"github.com/wagiedev/miniapp-bridge-go/internal/client"
)

// clientWrapper adapts the internal client to the public interface.
type clientWrapper struct {
	*client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
func newClientImpl(options *Options) Client {
	if options.Logger == nil {
		options.Logger = NopLogger()
	}

	return &clientWrapper{Client: client.New(options)}
}

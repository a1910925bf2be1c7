package protocol

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wagiedev/miniapp-bridge-go/internal/config"
	"github.com/wagiedev/miniapp-bridge-go/internal/fanout"
)

// mockTransport implements config.Transport for testing.
type mockTransport struct {
	mu       sync.Mutex
	messages []map[string]any
	ready    bool
	sendErr  error
	sent     chan map[string]any

	listeners fanout.Set
}

var _ config.Transport = (*mockTransport)(nil)

func newMockTransport() *mockTransport {
	return &mockTransport{
		ready: true,
		sent:  make(chan map[string]any, 100),
	}
}

func (m *mockTransport) Start(context.Context) error { return nil }

func (m *mockTransport) SendMessage(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}

	m.messages = append(m.messages, msg)
	m.sent <- msg

	return nil
}

func (m *mockTransport) Listen(fn config.Listener) func() { return m.listeners.Add(fn) }

func (m *mockTransport) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ready
}

func (m *mockTransport) Close() error { return nil }

func (m *mockTransport) getMessages() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]map[string]any(nil), m.messages...)
}

// reply injects an inbound message as if the host had posted it.
func (m *mockTransport) reply(msg map[string]any) {
	m.listeners.Emit(msg)
}

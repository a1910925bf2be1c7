// Package token generates correlation tokens for outgoing commands.
package token

import (
	crand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generator produces UUIDv4-shaped correlation tokens.
//
// Tokens are read from a strong source first. If that source fails, a
// ChaCha8 pseudo-random stream is used instead; the output format is the same
// either way.
type Generator struct {
	strong io.Reader

	mu   sync.Mutex
	weak io.Reader
}

// NewGenerator returns a Generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorFromReader(crand.Reader)
}

// NewGeneratorFromReader returns a Generator reading strong randomness from r.
func NewGeneratorFromReader(r io.Reader) *Generator {
	var seed [32]byte

	binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint64(seed[8:16], rand.Uint64())
	binary.LittleEndian.PutUint64(seed[16:24], rand.Uint64())
	binary.LittleEndian.PutUint64(seed[24:], rand.Uint64())

	return &Generator{
		strong: r,
		weak:   rand.NewChaCha8(seed),
	}
}

// Next returns a fresh token. It never blocks on the fallback path and never
// fails.
func (g *Generator) Next() string {
	if id, err := uuid.NewRandomFromReader(g.strong); err == nil {
		return id.String()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// ChaCha8 reads never fail.
	return uuid.Must(uuid.NewRandomFromReader(g.weak)).String()
}

var defaultGenerator = NewGenerator()

// Next returns a token from the process-wide generator.
func Next() string {
	return defaultGenerator.Next()
}

package schedule

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IdGenerator hands out identifiers that are unique for the lifetime of a store
type IdGenerator interface {
	NewID() string
}

// UUIDGenerator produces random v4 UUIDs
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// CounterGenerator produces "<prefix>-1", "<prefix>-2", ... and is safe for concurrent use
type CounterGenerator struct {
	Prefix string
	n      atomic.Int64
}

// NewCounterGenerator returns a generator using the "session" prefix
func NewCounterGenerator() *CounterGenerator {
	return &CounterGenerator{Prefix: "session"}
}

func (g *CounterGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.Prefix, g.n.Add(1))
}

package collection

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator mints ids for new records.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator returns random version 4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// SequenceGenerator returns millisecond Unix timestamps as strings, with an
// optional prefix ("livestock_1700000000000"). Ids are strictly increasing
// within a process: when two calls land in the same millisecond the second
// one is bumped past the first.
type SequenceGenerator struct {
	Prefix string
	// Now defaults to time.Now.
	Now func() time.Time

	mu   sync.Mutex
	last int64
}

func (g *SequenceGenerator) NewID() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	ms := now().UnixMilli()

	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return g.Prefix + strconv.FormatInt(ms, 10)
}

// NewIDGenerator returns the generator for a strategy name: "uuid" (default)
// or "sequence".
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strategy {
	case "uuid", "":
		return UUIDGenerator{}, nil
	case "sequence":
		return &SequenceGenerator{}, nil
	default:
		return nil, &UnknownStrategyError{Strategy: strategy}
	}
}

// UnknownStrategyError reports an unsupported id strategy.
type UnknownStrategyError struct {
	Strategy string
}

func (e *UnknownStrategyError) Error() string {
	return "unknown id strategy: " + strconv.Quote(e.Strategy) + " (supported: uuid, sequence)"
}

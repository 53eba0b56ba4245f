package store

import (
	"context"
	"sync"
)

// MemoryResource keeps the serialized Database in memory. Data is lost on
// restart. Safe for concurrent use.
type MemoryResource struct {
	mu       sync.Mutex
	data     []byte
	writeErr error
	reads    int
	writes   int
}

func NewMemoryResource() *MemoryResource {
	return &MemoryResource{}
}

// NewMemoryResourceWith returns a resource that already holds data.
func NewMemoryResourceWith(data []byte) *MemoryResource {
	return &MemoryResource{data: append([]byte(nil), data...)}
}

func (m *MemoryResource) Read(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.data == nil {
		return nil, ErrNotExist
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryResource) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes++
	m.data = append([]byte(nil), data...)
	return nil
}

// FailWrites makes every following Write return err. A nil err clears it.
func (m *MemoryResource) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Bytes returns a copy of the stored document, or nil when nothing was written.
func (m *MemoryResource) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	return append([]byte(nil), m.data...)
}

// Reads returns how many times Read was called.
func (m *MemoryResource) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns how many writes succeeded.
func (m *MemoryResource) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *MemoryResource) String() string {
	return "memory"
}

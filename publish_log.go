package serum

import "sync"

// PublishLog receives the fills a FillTracker reads from each poll.
//
// Publish is called with the tracker lock held, so fills arrive in sequence
// order. Implementations should return quickly.
type PublishLog interface {
	Publish(...*Fill)
}

// MemoryPublishLog stores fills in memory, useful for testing.
type MemoryPublishLog struct {
	mu    sync.RWMutex
	Fills []*Fill
}

// NewMemoryPublishLog creates a new MemoryPublishLog.
func NewMemoryPublishLog() *MemoryPublishLog {
	return &MemoryPublishLog{
		Fills: make([]*Fill, 0),
	}
}

// Publish appends fills to the in-memory slice.
func (m *MemoryPublishLog) Publish(fills ...*Fill) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fill := range fills {
		cpy := new(Fill)
		*cpy = *fill
		m.Fills = append(m.Fills, cpy)
	}
}

// Count returns the number of fills stored.
func (m *MemoryPublishLog) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Fills)
}

// Get returns the fill at the specified index.
func (m *MemoryPublishLog) Get(index int) *Fill {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Fills[index]
}

// DiscardPublishLog discards all fills.
type DiscardPublishLog struct {
}

// NewDiscardPublishLog creates a new DiscardPublishLog.
func NewDiscardPublishLog() *DiscardPublishLog {
	return &DiscardPublishLog{}
}

// Publish does nothing.
func (p *DiscardPublishLog) Publish(fills ...*Fill) {

}

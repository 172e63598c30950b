package cache

import (
	"context"
	"sync"
	"time"

	"github.com/flowdeck-dev/flowdeck/pkg/domain/model"
	"github.com/flowdeck-dev/flowdeck/pkg/domain/types"
)

const defaultMemoryTTL = 5 * time.Minute

type memoryEntry struct {
	value     any
	expiresAt time.Time
}

// MemoryCache is the in-process ContextCache used when no redis backend
// is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	nowFn   func() time.Time
}

var _ ContextCache = &MemoryCache{}

// NewMemoryCache creates an in-memory cache. ttl <= 0 uses the default.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		nowFn:   time.Now,
	}
}

func (c *MemoryCache) get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.nowFn().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		value:     value,
		expiresAt: c.nowFn().Add(c.ttl),
	}
}

func (c *MemoryCache) delete(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
}

func (c *MemoryCache) GetEvent(ctx context.Context, id types.EventID) (*model.Event, error) {
	v, ok := c.get(eventKey(id))
	if !ok {
		return nil, nil
	}
	e, ok := v.(*model.Event)
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

func (c *MemoryCache) SetEvent(ctx context.Context, e *model.Event) error {
	c.set(eventKey(e.ID), e.Clone())
	return nil
}

func (c *MemoryCache) GetProcess(ctx context.Context, id types.ProcessID) (*model.ProcessContext, error) {
	v, ok := c.get(processKey(id))
	if !ok {
		return nil, nil
	}
	p, ok := v.(*model.ProcessContext)
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (c *MemoryCache) SetProcess(ctx context.Context, p *model.ProcessContext) error {
	c.set(processKey(p.ID), p.Clone())
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, eventID types.EventID, processID types.ProcessID) error {
	keys := []string{eventKey(eventID)}
	if processID != "" {
		keys = append(keys, processKey(processID))
	}
	c.delete(keys...)
	return nil
}

func (c *MemoryCache) Close() error {
	return nil
}

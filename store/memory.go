package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Collection implementation. It serves tests,
// seeding fixtures, and single-node deployments.
type Memory[T Document] struct {
	mu   sync.RWMutex
	docs []T
}

// NewMemory creates an empty in-memory collection.
func NewMemory[T Document]() *Memory[T] {
	return &Memory[T]{}
}

func (m *Memory[T]) Find(ctx context.Context, expr Expr, opts ...QueryOption) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := applyOptions(opts)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []T
	for _, doc := range m.docs {
		if expr == nil || expr.Matches(doc) {
			out = append(out, doc)
			if o.limit > 0 && len(out) >= o.limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory[T]) Insert(ctx context.Context, doc T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, doc)
	return nil
}

func (m *Memory[T]) Update(ctx context.Context, expr Expr, mutate func(T) T) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := 0
	for i, doc := range m.docs {
		if expr == nil || expr.Matches(doc) {
			m.docs[i] = mutate(doc)
			changed++
		}
	}
	return changed, nil
}

func (m *Memory[T]) Delete(ctx context.Context, expr Expr) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.docs[:0]
	removed := 0
	for _, doc := range m.docs {
		if expr == nil || expr.Matches(doc) {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	m.docs = kept
	return removed, nil
}

func (m *Memory[T]) Count(ctx context.Context, expr Expr) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, doc := range m.docs {
		if expr == nil || expr.Matches(doc) {
			n++
		}
	}
	return n, nil
}

var _ Collection[Document] = (*Memory[Document])(nil)

// MemoryKV is an in-process KV implementation with TTL expiry. Expired
// entries are dropped lazily on Load.
type MemoryKV[C any] struct {
	mu      sync.Mutex
	entries map[string]memoryEntry[C]
	now     func() time.Time
}

type memoryEntry[C any] struct {
	val       C
	expiresAt time.Time // zero means no expiry
}

// NewMemoryKV creates an empty in-memory KV store.
func NewMemoryKV[C any]() *MemoryKV[C] {
	return &MemoryKV[C]{
		entries: make(map[string]memoryEntry[C]),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Tests use this to step TTLs.
func (s *MemoryKV[C]) WithClock(now func() time.Time) *MemoryKV[C] {
	s.now = now
	return s
}

func (s *MemoryKV[C]) Load(ctx context.Context, key string) (*C, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	val := entry.val
	return &val, nil
}

func (s *MemoryKV[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry[C]{val: *val}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *MemoryKV[C]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Keys returns a snapshot of the non-expired keys. Cleanup sweeps use this.
func (s *MemoryKV[C]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, k)
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

var _ KV[int] = (*MemoryKV[int])(nil)

// Package keylock provides striped mutexes keyed by string. Operations on
// the same key are serialized; operations on different keys proceed
// concurrently, contending only on hash collisions within a stripe.
package keylock

import (
	"hash/fnv"
	"sync"
)

// DefaultStripes is the stripe count used by New when given a non-positive
// value.
const DefaultStripes = 64

// Striped is a fixed set of mutexes addressed by key hash.
type Striped struct {
	stripes []sync.Mutex
	mask    uint32
}

// New creates a Striped with at least n stripes, rounded up to a power of
// two so the hash can be masked instead of divided.
func New(n int) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return &Striped{
		stripes: make([]sync.Mutex, size),
		mask:    uint32(size - 1),
	}
}

func (s *Striped) index(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() & s.mask
}

// Lock acquires the stripe covering key.
func (s *Striped) Lock(key string) {
	s.stripes[s.index(key)].Lock()
}

// Unlock releases the stripe covering key. The caller must hold it.
func (s *Striped) Unlock(key string) {
	s.stripes[s.index(key)].Unlock()
}

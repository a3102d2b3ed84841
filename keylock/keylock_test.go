package keylock

import (
	"sync"
	"testing"
)

func TestNew_RoundsUpToPowerOfTwo(t *testing.T) {
	s := New(100)
	if len(s.stripes) != 128 {
		t.Errorf("expected 128 stripes, got %d", len(s.stripes))
	}

	s = New(0)
	if len(s.stripes) != DefaultStripes {
		t.Errorf("expected %d stripes, got %d", DefaultStripes, len(s.stripes))
	}
}

func TestStriped_SerializesSameKey(t *testing.T) {
	s := New(16)

	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Lock("same-key")
			counter++
			s.Unlock("same-key")
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("expected 100, got %d", counter)
	}
}

func TestStriped_DifferentKeysIndependent(t *testing.T) {
	s := New(16)

	s.Lock("a")
	done := make(chan struct{})
	go func() {
		// "b" hashes to a different stripe than "a" with 16 stripes,
		// so this must not block on the lock held above.
		s.Lock("b")
		s.Unlock("b")
		close(done)
	}()
	<-done
	s.Unlock("a")
}

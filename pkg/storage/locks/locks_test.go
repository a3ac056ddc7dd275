package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForPathReturnsSameLockForSamePath(t *testing.T) {
	registry := NewRegistry()

	a := registry.ForPath("/store/wiki/Space/Page/~this/attachments/a.png")
	b := registry.ForPath("/store/wiki/Space/Page/~this/attachments/a.png")

	assert.Same(t, a, b)
	assert.Equal(t, 1, registry.Len())
}

func TestForPathCanonicalizesEquivalentSpellings(t *testing.T) {
	registry := NewRegistry()

	a := registry.ForPath("/store/wiki//Space/./Page")
	b := registry.ForPath("/store/wiki/Space/Page")

	assert.Same(t, a, b)
	assert.Equal(t, 1, registry.Len())
}

func TestForPathDistinctPathsGetDistinctLocks(t *testing.T) {
	registry := NewRegistry()

	a := registry.ForPath("/store/a")
	b := registry.ForPath("/store/b")

	require.NotSame(t, a, b)
	assert.Equal(t, 2, registry.Len())
}

func TestConcurrentFirstAccessObservesOneLock(t *testing.T) {
	registry := NewRegistry()

	const goroutines = 64
	results := make([]*sync.RWMutex, goroutines)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i] = registry.ForPath("/store/contended/path")
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i], "goroutine %d got a different lock", i)
	}
	assert.Equal(t, 1, registry.Len())
}

func TestWriteLockExcludesWriters(t *testing.T) {
	registry := NewRegistry()
	lock := registry.ForPath("/store/serial")

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	inCritical := 0
	overlap := false

	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			lock.Lock()
			defer lock.Unlock()

			mu.Lock()
			inCritical++
			if inCritical > 1 {
				overlap = true
			}
			mu.Unlock()

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.False(t, overlap, "two writers overlapped in the critical section")
}

package counter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceIsUnique(t *testing.T) {
	s := NewSequence()
	require.Equal(t, uint64(0), s.Peek())

	var (
		wg   sync.WaitGroup
		lock sync.Mutex
		seen = map[uint64]bool{}
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := s.Next()
			lock.Lock()
			defer lock.Unlock()
			seen[v] = true
		}()
	}
	wg.Wait()

	require.Len(t, seen, 50)
	for i := uint64(0); i < 50; i++ {
		require.True(t, seen[i])
	}
	require.Equal(t, uint64(50), s.Peek())
}

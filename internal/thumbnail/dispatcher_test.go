package thumbnail

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatcher_DeliversInOrder(t *testing.T) {
	d := NewDispatcher()

	var mu sync.Mutex
	var got []int
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		d.Post(func() {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	wg.Wait()
	d.Close()

	for i, v := range got {
		assert.Equal(t, i, v, "delivery must preserve post order")
	}
	assert.Len(t, got, 50)
}

func TestDispatcher_CloseDrainsPending(t *testing.T) {
	d := NewDispatcher()

	var mu sync.Mutex
	count := 0
	for i := 0; i < 10; i++ {
		d.Post(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}
	d.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestDispatcher_PostAfterCloseIsNoOp(t *testing.T) {
	d := NewDispatcher()
	d.Close()

	assert.NotPanics(t, func() {
		d.Post(func() { t.Error("must not run after close") })
	})
}

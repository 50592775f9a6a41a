package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	pool := New(5)
	require.NotNil(t, pool)
	assert.Equal(t, 5, pool.Size())
	pool.Wait()

	unbounded := New(-1)
	assert.Equal(t, 0, unbounded.Size())
	unbounded.Wait()
}

func TestPool_Submit(t *testing.T) {
	for _, size := range []int{0, 2} {
		pool := New(size)

		var mu sync.Mutex
		executed := make([]int, 0)

		for i := 0; i < 5; i++ {
			jobID := i
			pool.Submit(func() {
				mu.Lock()
				executed = append(executed, jobID)
				mu.Unlock()
			})
		}

		// Wait returns only after every job ran
		pool.Wait()
		assert.Len(t, executed, 5, "size=%d", size)
	}
}

func TestPool_ConcurrencyCap(t *testing.T) {
	pool := New(3)

	var mu sync.Mutex
	activeJobs := 0
	maxActive := 0

	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			mu.Lock()
			activeJobs++
			if activeJobs > maxActive {
				maxActive = activeJobs
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			activeJobs--
			mu.Unlock()
		})
	}

	pool.Wait()

	assert.LessOrEqual(t, maxActive, 3)
	assert.Equal(t, 0, activeJobs)
}

func TestPool_UnboundedRunsConcurrently(t *testing.T) {
	pool := New(0)

	var started atomic.Int32
	release := make(chan struct{})

	for i := 0; i < 4; i++ {
		pool.Submit(func() {
			started.Add(1)
			<-release
		})
	}

	assert.Eventually(t, func() bool { return started.Load() == 4 }, time.Second, time.Millisecond)
	close(release)
	pool.Wait()
}

func TestPool_WaitIsIdempotent(t *testing.T) {
	pool := New(2)
	pool.Submit(func() {})
	pool.Wait()

	assert.NotPanics(t, func() { pool.Wait() })
}

package motion

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestExecutorDefaultFanout(t *testing.T) {
	e := NewExecutor(0)
	if e.P() != DefaultFanout {
		t.Errorf("NewExecutor(0).P() = %d, want %d", e.P(), DefaultFanout)
	}
}

func TestExecutorRunsEveryStepOnce(t *testing.T) {
	e := NewExecutor(6)
	seen := make([]int32, e.P())
	var mu sync.Mutex
	e.Run(func(step int) {
		mu.Lock()
		seen[step]++
		mu.Unlock()
	})
	for step, count := range seen {
		if count != 1 {
			t.Errorf("step %d ran %d times, want 1", step, count)
		}
	}
}

func TestExecutorJoinsAllWorkersBeforeReturning(t *testing.T) {
	e := NewExecutor(8)
	var done int32
	e.Run(func(step int) {
		atomic.AddInt32(&done, 1)
	})
	if done != int32(e.P()) {
		t.Fatalf("Run returned before all %d workers finished; only %d completed", e.P(), done)
	}
}

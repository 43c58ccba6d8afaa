package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesTasks(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 2)

	q := NewQueue("test", func(ctx context.Context, task Task) error {
		mu.Lock()
		seen = append(seen, task.Kind)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, Options{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{Kind: "a"}))
	require.NoError(t, q.Enqueue(Task{Kind: "b"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(ctx context.Context, task Task) error { return nil }, Options{})
	err := q.Enqueue(Task{Kind: "a"})
	require.Error(t, err)
}

func TestQueueRetriesFailedTasks(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	succeeded := make(chan struct{})

	q := NewQueue("test", func(ctx context.Context, task Task) error {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			return errors.New("transient")
		}
		close(succeeded)
		return nil
	}, Options{Workers: 1, MaxAttempts: 4, Backoff: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{Kind: "flaky"}))

	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not retried")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

func TestQueueDropsTaskAfterFinalAttempt(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	handled := make(chan struct{}, 4)

	q := NewQueue("test", func(ctx context.Context, task Task) error {
		mu.Lock()
		attempts++
		mu.Unlock()
		handled <- struct{}{}
		return errors.New("permanent")
	}, Options{Workers: 1, MaxAttempts: 2, Backoff: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Task{Kind: "doomed"}))

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatal("task was not handled")
		}
	}

	// The attempt budget is spent; no further retry may arrive.
	select {
	case <-handled:
		t.Fatal("task retried past its attempt budget")
	case <-time.After(100 * time.Millisecond):
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, attempts)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTaskQueue_FIFO(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		if err := q.Do(context.Background(), func() error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for i, got := range order {
		if got != i {
			t.Fatalf("expected task %d at position %d, got %d", i, i, got)
		}
	}
}

func TestTaskQueue_FailureDoesNotBlockNext(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	boom := errors.New("boom")
	if err := q.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	ran := false
	if err := q.Do(context.Background(), func() error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Error("task after a failed one did not run")
	}
}

func TestTaskQueue_AtMostOneInFlight(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	var mu sync.Mutex
	inFlight := 0
	overlapped := false

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func() error {
				mu.Lock()
				inFlight++
				if inFlight > 1 {
					overlapped = true
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if overlapped {
		t.Error("two tasks ran concurrently")
	}
}

func TestTaskQueue_AbandonedWaitStillRuns(t *testing.T) {
	q := newTaskQueue()
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = q.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	// The queue is busy; this submission waits, the ctx is already dead.
	go func() {
		err := q.Do(ctx, func() error { return nil })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		close(done)
	}()

	<-done
	close(release)
}

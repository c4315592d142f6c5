package service

import "context"

// taskQueue serializes read-modify-write cycles against a storage slot.
// Tasks run one at a time in submission order; a failing task never blocks
// the tasks queued behind it.
type taskQueue struct {
	tasks chan func()
	done  chan struct{}
}

func newTaskQueue() *taskQueue {
	q := &taskQueue{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *taskQueue) run() {
	for task := range q.tasks {
		task()
	}
	close(q.done)
}

// Do submits fn and waits for it to finish. Once scheduled the task always
// runs to completion; an expired ctx only abandons the wait, never the
// work.
func (q *taskQueue) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case q.tasks <- func() { errc <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for queued ones to drain.
func (q *taskQueue) Close() {
	close(q.tasks)
	<-q.done
}

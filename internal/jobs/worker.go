package jobs

import (
	"context"
	"log"
	"time"
)

// Task is one unit of periodic maintenance work, such as pruning
// session rows that have aged out of the quota window.
type Task interface {
	Run(ctx context.Context) error
}

// Worker runs a Task on a fixed interval until stopped. A failed run
// is logged and retried on the next tick; maintenance never takes the
// server down with it.
type Worker struct {
	task     Task
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewWorker(task Task, interval time.Duration) *Worker {
	return &Worker{
		task:     task,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start blocks, ticking the task until the context is cancelled or
// Stop is called. Run it in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.done)

	log.Printf("maintenance worker started (interval %v)", w.interval)

	for {
		select {
		case <-ctx.Done():
			log.Println("maintenance worker stopped: context cancelled")
			return
		case <-w.stop:
			log.Println("maintenance worker stopped")
			return
		case <-ticker.C:
			if err := w.task.Run(ctx); err != nil {
				log.Printf("maintenance run failed: %v", err)
			}
		}
	}
}

// Stop signals the worker and waits for the current run to finish.
func (w *Worker) Stop() {
	close(w.stop)
	<-w.done
}

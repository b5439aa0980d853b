package xcqrs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// ObserverPool fans notices out to observers on a fixed set of worker
// goroutines so slow observers never hold up a dispatch. Notify never blocks:
// when the buffer is full the notice is dropped and counted.
type ObserverPool struct {
	jobs      chan noticeJob
	workers   int
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closed    atomic.Bool
	dropped   atomic.Uint64
	processed atomic.Uint64
}

type noticeJob struct {
	notice    Notice
	observers []Observer
}

// NewObserverPool starts workers goroutines reading from a buffer of bufferSize
// notices. Non-positive values fall back to 4 workers and 1024 slots.
func NewObserverPool(ctx context.Context, workers, bufferSize int) *ObserverPool {
	if workers < 1 {
		workers = 4
	}
	if bufferSize < 1 {
		bufferSize = 1024
	}
	poolCtx, cancel := context.WithCancel(ctx)
	op := &ObserverPool{
		jobs:    make(chan noticeJob, bufferSize),
		workers: workers,
		ctx:     poolCtx,
		cancel:  cancel,
	}
	op.wg.Add(workers)
	for range workers {
		go op.run()
	}
	return op
}

// Notify queues n for the given observers. The caller must not mutate the
// observers slice afterwards.
func (op *ObserverPool) Notify(n Notice, observers []Observer) {
	if len(observers) == 0 || op.closed.Load() {
		return
	}
	select {
	case op.jobs <- noticeJob{notice: n, observers: observers}:
	default:
		op.dropped.Add(1)
	}
}

func (op *ObserverPool) run() {
	defer op.wg.Done()
	for {
		select {
		case job := <-op.jobs:
			op.deliver(job)
		case <-op.ctx.Done():
			// Drain what was queued before Close.
			for {
				select {
				case job := <-op.jobs:
					op.deliver(job)
				default:
					return
				}
			}
		}
	}
}

func (op *ObserverPool) deliver(job noticeJob) {
	for _, o := range job.observers {
		if o == nil {
			continue
		}
		func() {
			// An observer panic must not kill the worker.
			defer func() { _ = recover() }()
			o.OnNotice(job.notice)
		}()
	}
	op.processed.Add(1)
}

// Close stops accepting notices and waits up to timeout for queued ones to be
// delivered. Calling it again is a no-op.
func (op *ObserverPool) Close(timeout time.Duration) error {
	if op.closed.Swap(true) {
		return nil
	}
	op.cancel()

	done := make(chan struct{})
	go func() {
		op.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		return ErrObserverPoolShutdownTimeout
	}
}

// Stats returns current pool statistics.
func (op *ObserverPool) Stats() PoolStats {
	return PoolStats{
		Dropped:    op.dropped.Load(),
		Processed:  op.processed.Load(),
		Queued:     len(op.jobs),
		Workers:    op.workers,
		BufferSize: cap(op.jobs),
	}
}

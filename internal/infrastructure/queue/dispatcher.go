package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/storefront/shop-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// ErrStopped is returned when a job is submitted after the dispatcher stopped.
var ErrStopped = errors.New("dispatcher stopped")

// Job states. A job is claimed by exactly one side: the worker that runs it or
// the caller that abandons it before it started.
const (
	jobPending int32 = iota
	jobRunning
	jobAbandoned
)

type job struct {
	ctx   context.Context
	fn    func(ctx context.Context) error
	done  chan error
	state *atomic.Int32
}

// Dispatcher routes cart mutations to a fixed set of workers using consistent
// hashing on the user id, so mutations for one user run one at a time and in
// submission order while different users proceed in parallel.
type Dispatcher struct {
	workers []chan job
	stopped chan struct{}
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		stopped: make(chan struct{}),
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.stopped)
	}()
}

// Do runs fn on the worker that owns key and waits for it to finish. The
// caller's ctx bounds the wait in the queue and is passed to fn. Once a worker
// has picked the job up, Do always reports fn's own result, so a mutation that
// committed is never reported as failed.
func (d *Dispatcher) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1), state: new(atomic.Int32)}
	idx := d.shardIndex(key)

	select {
	case d.workers[idx] <- j:
		metrics.CartQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-d.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	var abandonErr error
	select {
	case err := <-j.done:
		return err
	case <-d.stopped:
		abandonErr = ErrStopped
	case <-ctx.Done():
		abandonErr = ctx.Err()
	}

	if j.state.CompareAndSwap(jobPending, jobAbandoned) {
		return abandonErr
	}
	// A worker is already running fn; its result is authoritative.
	return <-j.done
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			metrics.CartQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if !j.state.CompareAndSwap(jobPending, jobRunning) {
				// The caller gave up while the job was queued.
				continue
			}
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			err := j.fn(j.ctx)
			if err != nil {
				d.log.Debug().Err(err).Int("worker_id", id).Msg("cart mutation failed")
			}
			j.done <- err
		}
	}
}

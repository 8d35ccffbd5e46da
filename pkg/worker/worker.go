package worker

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/panelgrid/pkg/pipeline"
	"github.com/matzehuels/panelgrid/pkg/protocol"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("worker closed")

// defaultBuffer is the capacity of the response channel.
const defaultBuffer = 8

// ComputeFunc solves one request. It runs on the worker goroutine and
// should return within its own time budget; ctx is cancelled on Close.
type ComputeFunc func(ctx context.Context, req protocol.Request) protocol.Response

// RunnerFunc adapts a pipeline runner into a ComputeFunc.
func RunnerFunc(r *pipeline.Runner, opts pipeline.Options) ComputeFunc {
	return func(ctx context.Context, req protocol.Request) protocol.Response {
		return r.Compute(ctx, req, opts)
	}
}

// Options configures a Worker.
type Options struct {
	// Logger receives debug output. Nil discards.
	Logger *log.Logger

	// Buffer is the capacity of the response channel. Zero means 8.
	Buffer int
}

// Worker computes submitted requests sequentially on one long-lived
// goroutine. Submit never blocks; responses are delivered on Responses in
// the order the requests were submitted.
type Worker struct {
	compute ComputeFunc
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []protocol.Request
	closed bool

	notify  chan struct{}
	out     chan protocol.Response
	stopped chan struct{}
	once    sync.Once
}

// New starts a worker that solves requests with compute.
func New(compute ComputeFunc, opts Options) *Worker {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		compute: compute,
		logger:  opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
		notify:  make(chan struct{}, 1),
		out:     make(chan protocol.Response, opts.Buffer),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit queues req for computation.
func (w *Worker) Submit(req protocol.Request) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.queue = append(w.queue, req)
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
	return nil
}

// Responses returns the channel of computed responses. It is closed once
// the worker has stopped.
func (w *Worker) Responses() <-chan protocol.Response {
	return w.out
}

// Pending returns the number of queued requests not yet started.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Close stops the worker. Queued requests are dropped and a computation in
// progress sees its context cancelled. Close waits for the goroutine to exit
// and is safe to call more than once.
func (w *Worker) Close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		dropped := len(w.queue)
		w.queue = nil
		w.mu.Unlock()

		w.cancel()
		<-w.stopped
		if dropped > 0 {
			w.logger.Debug("worker stopped", "dropped", dropped)
		}
	})
}

func (w *Worker) loop() {
	defer close(w.stopped)
	defer close(w.out)

	for {
		req, ok := w.next()
		if !ok {
			return
		}
		resp := w.compute(w.ctx, req)
		select {
		case w.out <- resp:
		case <-w.ctx.Done():
			return
		}
	}
}

// next blocks until a request is queued or the worker is closed.
func (w *Worker) next() (protocol.Request, bool) {
	for {
		if w.ctx.Err() != nil {
			return protocol.Request{}, false
		}
		w.mu.Lock()
		if len(w.queue) > 0 {
			req := w.queue[0]
			w.queue = w.queue[1:]
			w.mu.Unlock()
			return req, true
		}
		w.mu.Unlock()

		select {
		case <-w.notify:
		case <-w.ctx.Done():
			return protocol.Request{}, false
		}
	}
}

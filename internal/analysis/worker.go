package analysis

import (
	"sync"
	"sync/atomic"
)

// Worker runs an Extractor on a background goroutine. At most one request is
// in flight; submissions made while busy are dropped, so a slow worker lags
// by one result instead of building a queue.
type Worker struct {
	mu     sync.Mutex
	ex     *Extractor
	latest Levels
	ready  bool
	// gen is bumped by Reset; requests stamped with an older gen are
	// discarded unanalysed.
	gen uint64

	reqs    chan job
	busy    atomic.Bool
	closed  atomic.Bool
	dropped atomic.Uint64
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewWorker(ex *Extractor) *Worker {
	w := &Worker{
		ex:   ex,
		reqs: make(chan job, 1),
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

type job struct {
	req Request
	gen uint64
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case j := <-w.reqs:
			w.mu.Lock()
			if j.gen == w.gen {
				w.latest = w.ex.Analyze(j.req)
				w.ready = true
			}
			w.mu.Unlock()
			w.busy.Store(false)
		}
	}
}

// Submit hands req to the worker without blocking. The byte slices are
// copied. It reports false when the request was dropped.
func (w *Worker) Submit(req Request) bool {
	if w.closed.Load() || !w.busy.CompareAndSwap(false, true) {
		w.dropped.Add(1)
		return false
	}
	req.Main = append([]byte(nil), req.Main...)
	req.Drums = append([]byte(nil), req.Drums...)
	req.Instruments = append([]byte(nil), req.Instruments...)
	w.mu.Lock()
	gen := w.gen
	w.mu.Unlock()
	w.reqs <- job{req: req, gen: gen}
	return true
}

// Latest returns the newest result. ok is false until the first request
// completes.
func (w *Worker) Latest() (Levels, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.latest, w.ready
}

// Dropped counts submissions rejected because a request was in flight.
func (w *Worker) Dropped() uint64 { return w.dropped.Load() }

// Reset clears the extractor state and the last result. A request still in
// flight is dropped when it arrives.
func (w *Worker) Reset() {
	w.mu.Lock()
	w.gen++
	w.ex.Reset()
	w.latest = Levels{}
	w.ready = false
	w.mu.Unlock()
}

// Close stops the goroutine and waits for it to exit.
func (w *Worker) Close() {
	if w.closed.Swap(true) {
		return
	}
	close(w.done)
	w.wg.Wait()
}

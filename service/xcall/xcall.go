// Package xcall issues calls to other services without blocking the caller.
// The result of every call is handed to a continuation exactly once.
package xcall

import (
	"fmt"
	"sync"
	"time"

	"github.com/viney-shih/goroutines"
	"golang.org/x/xerrors"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/goroutine"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
)

const (
	defaultWorkers = 16
	defaultTimeout = 10 * time.Second
	// how long Call waits for a free pool slot before running the task on its own goroutine
	scheduleWait = 50 * time.Millisecond
)

// Result is the outcome of a call. Err is set when the callee failed, timed out or panicked.
type Result struct {
	Value interface{}
	Err   error
}

// Call is the remote invocation
type Call func(ctx.Ctx) (interface{}, error)

// Then is the continuation of a call
type Then func(ctx.Ctx, Result)

// Dispatcher schedules calls on a bounded pool of workers
type Dispatcher interface {
	// Call returns immediately, `then` runs on a worker once `call` settles
	Call(c ctx.Ctx, call Call, then Then)
	// Wait blocks until every issued call has run its continuation
	Wait()
	Release()
}

type Option func(*impl)

// WithWorkers sets the size of the worker pool
func WithWorkers(n int) Option {
	return func(im *impl) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithTimeout bounds every call, a call exceeding it is reported as failed
func WithTimeout(d time.Duration) Option {
	return func(im *impl) {
		if d > 0 {
			im.timeout = d
		}
	}
}

// WithScheduleWait bounds how long Call blocks on a saturated pool
func WithScheduleWait(d time.Duration) Option {
	return func(im *impl) {
		if d > 0 {
			im.wait = d
		}
	}
}

type impl struct {
	workers int
	timeout time.Duration
	wait    time.Duration
	pool    *goroutines.Pool
	wg      sync.WaitGroup
	met     metrics.Service
}

func New(opts ...Option) Dispatcher {
	im := &impl{
		workers: defaultWorkers,
		timeout: defaultTimeout,
		wait:    scheduleWait,
		met:     metrics.New("xcall"),
	}
	for _, o := range opts {
		o(im)
	}
	im.pool = goroutines.NewPool(im.workers, goroutines.WithTaskQueueLength(im.workers*4))
	return im
}

func (im *impl) Call(c ctx.Ctx, call Call, then Then) {
	im.wg.Add(1)
	dc := ctx.Detach(c)
	task := func() {
		defer im.wg.Done()
		res := im.invoke(dc, call)
		if ev := goroutine.Recover(func() { then(dc, res) }); ev != nil {
			im.met.BumpSum("then.panic", 1)
		}
	}

	// Callers usually hold the service executor and continuations take it again, so a
	// saturated pool must never block here. The overflow goroutine keeps the call alive.
	if err := im.pool.ScheduleWithTimeout(im.wait, task); err != nil {
		c.WithFields(log.Fields{"err": err}).Warn("pool saturated, call runs on overflow goroutine")
		im.met.BumpSum("schedule.overflow", 1)
		go task()
	}
}

// invoke gives up on a call that does not settle within the timeout, its late outcome is dropped
func (im *impl) invoke(c ctx.Ctx, call Call) Result {
	defer im.met.BumpTime("call.time").End()
	tc, cancel := ctx.WithTimeout(c, im.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		var res Result
		if ev := goroutine.Recover(func() { res.Value, res.Err = call(tc) }); ev != nil {
			res = Result{Err: fmt.Errorf("call panicked: %v", ev.Panic)}
		}
		done <- res
	}()

	var res Result
	select {
	case res = <-done:
	case <-tc.Done():
		res = Result{Err: xerrors.Errorf("call: %w", tc.Err())}
	}
	if res.Err != nil {
		im.met.BumpSum("call.err", 1)
	}
	return res
}

func (im *impl) Wait() {
	im.wg.Wait()
}

func (im *impl) Release() {
	im.wg.Wait()
	im.pool.Release()
}

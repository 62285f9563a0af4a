package xcall

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/serial"
)

type xcallSuite struct {
	suite.Suite
	d Dispatcher
}

func TestXcallSuite(t *testing.T) {
	suite.Run(t, new(xcallSuite))
}

func (s *xcallSuite) SetupTest() {
	s.d = New(WithWorkers(2), WithTimeout(50*time.Millisecond))
}

func (s *xcallSuite) TearDownTest() {
	s.d.Release()
}

func (s *xcallSuite) TestSuccess() {
	var got Result
	s.d.Call(ctx.Background(), func(ctx.Ctx) (interface{}, error) {
		return 42, nil
	}, func(_ ctx.Ctx, r Result) {
		got = r
	})
	s.d.Wait()
	s.NoError(got.Err)
	s.Equal(42, got.Value)
}

func (s *xcallSuite) TestFailure() {
	errBoom := errors.New("boom")
	var got Result
	s.d.Call(ctx.Background(), func(ctx.Ctx) (interface{}, error) {
		return nil, errBoom
	}, func(_ ctx.Ctx, r Result) {
		got = r
	})
	s.d.Wait()
	s.Equal(errBoom, got.Err)
}

func (s *xcallSuite) TestPanicBecomesFailure() {
	var got Result
	s.d.Call(ctx.Background(), func(ctx.Ctx) (interface{}, error) {
		panic("callee crashed")
	}, func(_ ctx.Ctx, r Result) {
		got = r
	})
	s.d.Wait()
	s.Error(got.Err)
	s.Nil(got.Value)
}

func (s *xcallSuite) TestTimeoutBecomesFailure() {
	var got Result
	s.d.Call(ctx.Background(), func(c ctx.Ctx) (interface{}, error) {
		time.Sleep(200 * time.Millisecond)
		return "late", nil
	}, func(_ ctx.Ctx, r Result) {
		got = r
	})
	s.d.Wait()
	s.Error(got.Err)
	s.Nil(got.Value)
}

func (s *xcallSuite) TestCallerCancelDoesNotAbortCall() {
	c, cancel := ctx.WithCancel(ctx.Background())
	var got Result
	s.d.Call(c, func(c ctx.Ctx) (interface{}, error) {
		time.Sleep(5 * time.Millisecond)
		return "done", c.Err()
	}, func(_ ctx.Ctx, r Result) {
		got = r
	})
	cancel()
	s.d.Wait()
	s.NoError(got.Err)
	s.Equal("done", got.Value)
}

func (s *xcallSuite) TestThenRunsOncePerCall() {
	var n int32
	for i := 0; i < 20; i++ {
		s.d.Call(ctx.Background(), func(ctx.Ctx) (interface{}, error) {
			return nil, nil
		}, func(ctx.Ctx, Result) {
			atomic.AddInt32(&n, 1)
		})
	}
	s.d.Wait()
	s.Equal(int32(20), n)
}

// Calls issued while holding the executor, with continuations that take it again,
// must all settle even when they outnumber the workers and the queue.
func (s *xcallSuite) TestSaturatedPoolUnderExecutor() {
	d := New(WithWorkers(1), WithTimeout(time.Second), WithScheduleWait(5*time.Millisecond))
	defer d.Release()
	exec := serial.NewLocal()

	const calls = 10
	var settled int32
	issued := make(chan struct{})
	go func() {
		defer close(issued)
		for i := 0; i < calls; i++ {
			s.NoError(exec.Do(ctx.Background(), func(c ctx.Ctx) error {
				d.Call(c, func(ctx.Ctx) (interface{}, error) {
					time.Sleep(20 * time.Millisecond)
					return nil, nil
				}, func(c ctx.Ctx, r Result) {
					s.NoError(r.Err)
					_ = exec.Do(c, func(ctx.Ctx) error {
						atomic.AddInt32(&settled, 1)
						return nil
					})
				})
				return nil
			}))
		}
	}()

	select {
	case <-issued:
	case <-time.After(3 * time.Second):
		s.FailNow("calls issued under the executor did not return")
	}
	d.Wait()
	s.Equal(int32(calls), atomic.LoadInt32(&settled))
}

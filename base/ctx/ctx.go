package ctx

import (
	"context"
	"time"

	"github.com/x-xyz/gatemarket/base/log"
)

type ctxKey string

const (
	callerKey ctxKey = "caller"

	// CallerField is the log field carrying the calling account
	CallerField = "caller"
)

type Ctx struct {
	context.Context
	log.Logger
}

func Background() Ctx {
	return Ctx{
		Context: context.Background(),
		Logger:  log.Log(),
	}
}

func Todo() Ctx {
	return Ctx{
		Context: context.TODO(),
		Logger:  log.Log(),
	}
}

func WithValue(parent Ctx, key string, val interface{}) Ctx {
	return Ctx{
		Context: context.WithValue(parent, key, val),
		Logger:  parent.Logger.WithField(key, val),
	}
}

func WithValues(parent Ctx, kvs map[string]interface{}) Ctx {
	c := parent
	for k, v := range kvs {
		c = WithValue(c, k, v)
	}
	return c
}

// WithCaller binds the account issuing the current call
func WithCaller(parent Ctx, account string) Ctx {
	return Ctx{
		Context: context.WithValue(parent, callerKey, account),
		Logger:  parent.Logger.WithField(CallerField, account),
	}
}

// Caller returns the account bound by WithCaller, empty if none
func Caller(c context.Context) string {
	if v, ok := c.Value(callerKey).(string); ok {
		return v
	}
	return ""
}

// Detach keeps values and logger but drops deadline and cancellation of the parent.
// Continuations of cross-service calls outlive the request that issued them.
func Detach(parent Ctx) Ctx {
	return Ctx{
		Context: detached{parent.Context},
		Logger:  parent.Logger,
	}
}

type detached struct {
	parent context.Context
}

func (detached) Deadline() (time.Time, bool)         { return time.Time{}, false }
func (detached) Done() <-chan struct{}               { return nil }
func (detached) Err() error                          { return nil }
func (d detached) Value(key interface{}) interface{} { return d.parent.Value(key) }

func WithCancel(parent Ctx) (Ctx, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	return Ctx{
		Context: ctx,
		Logger:  parent.Logger,
	}, cancel
}

func WithTimeout(parent Ctx, timeout time.Duration) (Ctx, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return Ctx{
		Context: ctx,
		Logger:  parent.Logger,
	}, cancel
}

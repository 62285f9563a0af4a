// Package serial runs the calls of one service one at a time.
package serial

import (
	"sync"

	"github.com/x-xyz/gatemarket/base/ctx"
)

// Executor runs fn to completion before starting the next one
type Executor interface {
	Do(c ctx.Ctx, fn func(ctx.Ctx) error) error
}

type local struct {
	mu sync.Mutex
}

// NewLocal serializes calls inside one process
func NewLocal() Executor {
	return &local{}
}

func (l *local) Do(c ctx.Ctx, fn func(ctx.Ctx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(c)
}

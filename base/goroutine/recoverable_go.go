// Package goroutine keeps a panicking task from taking the process down.
package goroutine

import (
	"runtime/debug"

	"github.com/x-xyz/gatemarket/base/log"
)

type PanicEvent struct {
	Panic interface{}
	Stack []byte
}

// Recover runs f on the calling goroutine and turns a panic into a logged PanicEvent,
// nil when f returns normally. Worker pools that own their goroutines wrap tasks with it.
func Recover(f func()) (ev *PanicEvent) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		stack := debug.Stack()
		log.Log().WithFields(log.Fields{"err": p, "stack": string(stack)}).Error("panic recovered")
		ev = &PanicEvent{Panic: p, Stack: stack}
	}()

	f()
	return nil
}

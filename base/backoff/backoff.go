// Package backoff spaces out retries of a contended operation.
package backoff

import (
	"context"
	"time"
)

// Exponential doubles the wait after every attempt until it reaches limit
type Exponential struct {
	start time.Duration
	limit time.Duration
	next  time.Duration
	tries int
}

func NewExponential(start, limit time.Duration) *Exponential {
	return &Exponential{start: start, limit: limit, next: start}
}

// Tries is the number of completed waits
func (b *Exponential) Tries() int {
	return b.tries
}

// Next is how long the following Wait sleeps
func (b *Exponential) Next() time.Duration {
	return b.next
}

// Wait sleeps for Next, returning early with the context error when c is done
func (b *Exponential) Wait(c context.Context) error {
	t := time.NewTimer(b.next)
	defer t.Stop()
	select {
	case <-c.Done():
		return c.Err()
	case <-t.C:
	}

	b.tries++
	b.next *= 2
	if b.limit > 0 && b.next > b.limit {
		b.next = b.limit
	}
	return nil
}

func (b *Exponential) Reset() {
	b.tries = 0
	b.next = b.start
}

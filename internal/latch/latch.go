// Package latch implements a countdown latch used during shutdown to know
// once the input decoder goroutine has exited after a stop request.
package latch

import "sync"

// Latch counts down from a fixed size to zero.
type Latch struct {
	wg sync.WaitGroup
}

// New returns a Latch armed for n count-downs.
func New(n int) *Latch {
	l := &Latch{}
	l.wg.Add(n)
	return l
}

// CountDown records one completion.
func (l *Latch) CountDown() {
	l.wg.Done()
}

// Wait blocks until every count-down has happened.
func (l *Latch) Wait() {
	l.wg.Wait()
}

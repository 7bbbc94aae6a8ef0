// Package supervisor reacts to ready and lock events once the audio path is
// configured. All bus traffic after bring-up originates here.
package supervisor

import (
	"context"
	"io"
	"log"
	"sync/atomic"

	"audiocode-go/drivers/src4392"
	"audiocode-go/services/hal/internal/gpioirq"
)

// RatioReader is the SRC operation the loop needs on a ready event.
type RatioReader interface {
	RefreshRatio() (src4392.Ratio, error)
}

// Stats are monotonic counters; safe to read from any goroutine.
type Stats struct {
	Ready    uint64
	Lock     uint64
	Failures uint64
}

type Loop struct {
	src   RatioReader
	ready *gpioirq.Queue
	lock  *gpioirq.Queue
	msg   *log.Logger

	nReady, nLock, nFail atomic.Uint64
}

func New(src RatioReader, ready, lock *gpioirq.Queue, msg *log.Logger) *Loop {
	if msg == nil {
		msg = log.New(io.Discard, "", 0)
	}
	return &Loop{src: src, ready: ready, lock: lock, msg: msg}
}

// Run serves events until ctx is done. A failed ratio refresh is logged and
// the loop keeps going.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.ready.Ready():
			if l.ready.Take() {
				l.onReady()
			}
		case <-l.lock.Ready():
			if l.lock.Take() {
				l.onLock()
			}
		}
	}
}

func (l *Loop) onReady() {
	l.nReady.Add(1)
	l.msg.Printf("ready received")
	r, err := l.src.RefreshRatio()
	if err != nil {
		l.nFail.Add(1)
		l.msg.Printf("src ratio: %v", err)
		return
	}
	l.msg.Printf("src ratio: %.4f", r.Float())
}

func (l *Loop) onLock() {
	l.nLock.Add(1)
	l.msg.Printf("lock received")
}

func (l *Loop) Stats() Stats {
	return Stats{
		Ready:    l.nReady.Load(),
		Lock:     l.nLock.Load(),
		Failures: l.nFail.Load(),
	}
}

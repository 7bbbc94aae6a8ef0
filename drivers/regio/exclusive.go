package regio

import (
	"sync/atomic"

	"tinygo.org/x/drivers"
)

// Exclusive guards a shared bus. Overlapping transfers fail with ErrBusBusy
// rather than waiting, so a second control flow touching the bus is
// reported instead of serialised.
type Exclusive struct {
	bus      drivers.SPI
	inflight atomic.Bool
	count    atomic.Uint64
}

func NewExclusive(bus drivers.SPI) *Exclusive { return &Exclusive{bus: bus} }

func (e *Exclusive) Tx(w, r []byte) error {
	if !e.inflight.CompareAndSwap(false, true) {
		return ErrBusBusy
	}
	defer e.inflight.Store(false)
	e.count.Add(1)
	return e.bus.Tx(w, r)
}

func (e *Exclusive) Transfer(b byte) (byte, error) {
	if !e.inflight.CompareAndSwap(false, true) {
		return 0, ErrBusBusy
	}
	defer e.inflight.Store(false)
	e.count.Add(1)
	return e.bus.Transfer(b)
}

// Transactions returns the number of transfers started so far.
func (e *Exclusive) Transactions() uint64 { return e.count.Load() }

// services/hal/internal/platform/factories_host.go
package platform

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"audiocode-go/services/hal/internal/halcore"

	"tinygo.org/x/drivers"
)

// handlerWait bounds how long a bus transfer waits for a running handler.
// A handler that is still running after that is the caller itself.
const handlerWait = 100 * time.Millisecond

// irqContext is the board's interrupt context: one FakePin handler runs at a
// time, and HostSPI cannot be entered while one is running.
type irqContext struct {
	slot chan struct{}
}

func newIRQContext() *irqContext { return &irqContext{slot: make(chan struct{}, 1)} }

func (c *irqContext) enter() { c.slot <- struct{}{} }
func (c *irqContext) leave() { <-c.slot }

// tryEnter waits up to d for the context to be free.
func (c *irqContext) tryEnter(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case c.slot <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

// ----------------------------- GPIO (host) -----------------------------------

// Drive is one recorded level change of a FakePin.
type Drive struct {
	Level bool
	At    time.Time
}

// FakePin implements GPIOPin and IRQPin for host-side tests. Set fires the
// installed handler synchronously on the caller's goroutine. Handlers do not
// nest.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	pull    halcore.Pull
	irqEdge halcore.Edge
	irqFunc func()
	history []Drive
	now     func() time.Time

	irq    *irqContext // shared with the bus; nil outside a SimBoard
	firing atomic.Int32

	// Fault injection.
	SetErr error
	IRQErr error
}

func (p *FakePin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.pull = pull
	if pull == halcore.PullUp {
		p.level = true
	}
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.history = append(p.history, Drive{Level: initial, At: p.stamp()})
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) error {
	p.mu.Lock()
	if p.SetErr != nil {
		err := p.SetErr
		p.mu.Unlock()
		return err
	}
	old := p.level
	p.level = level
	p.history = append(p.history, Drive{Level: level, At: p.stamp()})
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if want && irq != nil {
		p.fire(irq)
	}
	return nil
}

func (p *FakePin) fire(h func()) {
	if p.irq != nil {
		p.irq.enter()
		defer p.irq.leave()
	}
	p.firing.Add(1)
	defer p.firing.Add(-1)
	h()
}

// InHandler reports whether the pin's handler is running.
func (p *FakePin) InHandler() bool { return p.firing.Load() > 0 }

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.IRQErr != nil {
		return p.IRQErr
	}
	p.irqEdge = edge
	p.irqFunc = handler
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = halcore.EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// IsOutput reports whether the pin was configured as an output.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// HasIRQ reports whether a handler is installed.
func (p *FakePin) HasIRQ() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.irqFunc != nil
}

// History returns every level the pin was driven to, oldest first.
func (p *FakePin) History() []Drive {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Drive(nil), p.history...)
}

// Pulse drives the pin low then high, as an active-low source would.
func (p *FakePin) Pulse() {
	_ = p.Set(false)
	_ = p.Set(true)
}

func (p *FakePin) stamp() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func edgeFrom(old, new bool) halcore.Edge {
	switch {
	case !old && new:
		return halcore.EdgeRising
	case old && !new:
		return halcore.EdgeFalling
	default:
		return halcore.EdgeNone
	}
}

func irqWanted(cfg, seen halcore.Edge) bool {
	switch cfg {
	case halcore.EdgeBoth:
		return seen == halcore.EdgeRising || seen == halcore.EdgeFalling
	default:
		return cfg != halcore.EdgeNone && cfg == seen
	}
}

// HostPinFactory returns stable *FakePin instances per number.
type HostPinFactory struct {
	mu     sync.Mutex
	pins   map[int]*FakePin
	denied map[int]bool
	irq    *irqContext

	// Now stamps pin history; defaults to time.Now.
	Now func() time.Time
}

func (f *HostPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	p, ok := f.pin(n)
	if !ok {
		return nil, false
	}
	return p, true
}

func (f *HostPinFactory) pin(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied[n] {
		return nil, false
	}
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n, now: f.Now, irq: f.irq}
		f.pins[n] = p
	}
	return p, true
}

// Deny makes ByNumber fail for n.
func (f *HostPinFactory) Deny(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied == nil {
		f.denied = map[int]bool{}
	}
	f.denied[n] = true
}

// ----------------------------- SPI (host) ------------------------------------

var (
	errNoChipSelected = errors.New("platform: spi transfer with no chip selected")
	errContention     = errors.New("platform: spi transfer with several chips selected")
	errShortFrame     = errors.New("platform: spi frame too short")
)

// Access is one register transaction seen by HostSPI.
type Access struct {
	Pin   int // chip-select pin number
	Addr  uint8
	Write bool
	Value uint16
	At    time.Time
	Err   error
}

// Chip emulates the register side of one device.
type Chip interface {
	Transfer(w, r []byte) (Access, error)
}

type attachment struct {
	cs   *FakePin
	chip Chip
}

// HostSPI implements drivers.SPI by routing each transfer to the attached
// chip whose chip-select is low. On a SimBoard it shares the pins' interrupt
// context and panics when called from a FakePin handler.
type HostSPI struct {
	mu    sync.Mutex
	chips []attachment
	log   []Access
	irq   *irqContext

	// Now stamps accesses; defaults to time.Now.
	Now func() time.Time
}

// Attach puts chip on the bus behind cs.
func (h *HostSPI) Attach(cs *FakePin, chip Chip) {
	h.mu.Lock()
	h.chips = append(h.chips, attachment{cs: cs, chip: chip})
	h.mu.Unlock()
}

func (h *HostSPI) Tx(w, r []byte) error {
	if h.irq != nil {
		if !h.irq.tryEnter(handlerWait) {
			panic("platform: spi transfer from an IRQ handler")
		}
		defer h.irq.leave()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var sel *attachment
	for i := range h.chips {
		if h.chips[i].cs.Get() {
			continue
		}
		if sel != nil {
			return errContention
		}
		sel = &h.chips[i]
	}
	if sel == nil {
		return errNoChipSelected
	}
	acc, err := sel.chip.Transfer(w, r)
	acc.Pin = sel.cs.Number()
	acc.Err = err
	if h.Now != nil {
		acc.At = h.Now()
	} else {
		acc.At = time.Now()
	}
	h.log = append(h.log, acc)
	return err
}

func (h *HostSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := h.Tx([]byte{b}, r[:])
	return r[0], err
}

// Accesses returns the transaction log, oldest first.
func (h *HostSPI) Accesses() []Access {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Access(nil), h.log...)
}

// Reset clears the transaction log.
func (h *HostSPI) Reset() {
	h.mu.Lock()
	h.log = nil
	h.mu.Unlock()
}

type hostSPIFactory struct {
	buses map[string]drivers.SPI
}

func (f *hostSPIFactory) ByID(id string) (drivers.SPI, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// services/hal/internal/platform/factories_periph.go
package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"audiocode-go/services/hal/internal/halcore"
	"audiocode-go/services/hal/internal/platform/boards"

	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"tinygo.org/x/drivers"
)

// edgePoll bounds each WaitForEdge so a watcher notices ClearIRQ and ctx.
const edgePoll = 100 * time.Millisecond

// ----------------------------- GPIO (periph) ---------------------------------

// PeriphPinFactory serves pins registered with periph's gpioreg. Run delivers
// edges, one WaitForEdge goroutine per pin with a handler installed.
type PeriphPinFactory struct {
	board  boards.Board
	byName func(string) gpio.PinIO

	mu      sync.Mutex
	pins    map[int]*periphPin
	changed chan struct{}
}

// NewPeriphPinFactory looks pins up as "GPIO<n>". periph's host drivers must
// be initialised first.
func NewPeriphPinFactory(b boards.Board) *PeriphPinFactory {
	return newPeriphPinFactory(b, gpioreg.ByName)
}

func newPeriphPinFactory(b boards.Board, byName func(string) gpio.PinIO) *PeriphPinFactory {
	return &PeriphPinFactory{
		board:   b,
		byName:  byName,
		pins:    map[int]*periphPin{},
		changed: make(chan struct{}, 1),
	}
}

func (f *PeriphPinFactory) ByNumber(n int) (halcore.GPIOPin, bool) {
	if !f.board.ValidPin(n) {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.pins[n]; ok {
		return p, true
	}
	pin := f.byName("GPIO" + strconv.Itoa(n))
	if pin == nil {
		return nil, false
	}
	p := &periphPin{f: f, n: n, io: pin, pull: gpio.PullNoChange}
	f.pins[n] = p
	return p, true
}

// Run starts a watcher for every installed handler and keeps doing so as
// handlers come and go. Handlers run on the watcher goroutines.
func (f *PeriphPinFactory) Run(ctx context.Context) error {
	var g errgroup.Group
	started := map[*periphPin]uint64{}
	for {
		for _, w := range f.pending(started) {
			w := w
			g.Go(func() error {
				w.p.watch(ctx, w.gen)
				return nil
			})
		}
		select {
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		case <-f.changed:
		}
	}
}

type watcher struct {
	p   *periphPin
	gen uint64
}

// pending returns the installed handlers that have no watcher yet.
func (f *PeriphPinFactory) pending(started map[*periphPin]uint64) []watcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []watcher
	for _, p := range f.pins {
		gen, armed := p.armed()
		if !armed || started[p] == gen {
			continue
		}
		started[p] = gen
		out = append(out, watcher{p: p, gen: gen})
	}
	return out
}

func (f *PeriphPinFactory) kick() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

type periphPin struct {
	f  *PeriphPinFactory
	n  int
	io gpio.PinIO

	mu      sync.Mutex
	pull    gpio.Pull
	gen     uint64 // bumped by every SetIRQ/ClearIRQ
	handler func()
}

func (p *periphPin) ConfigureInput(pull halcore.Pull) error {
	gp := toPull(pull)
	if err := p.io.In(gp, gpio.NoEdge); err != nil {
		return fmt.Errorf("gpio %d: input: %w", p.n, err)
	}
	p.mu.Lock()
	p.pull = gp
	p.mu.Unlock()
	return nil
}

func (p *periphPin) ConfigureOutput(initial bool) error {
	if err := p.io.Out(gpio.Level(initial)); err != nil {
		return fmt.Errorf("gpio %d: output: %w", p.n, err)
	}
	return nil
}

func (p *periphPin) Set(level bool) error {
	if err := p.io.Out(gpio.Level(level)); err != nil {
		return fmt.Errorf("gpio %d: write: %w", p.n, err)
	}
	return nil
}

func (p *periphPin) Get() bool { return bool(p.io.Read()) }

func (p *periphPin) Number() int { return p.n }

func (p *periphPin) SetIRQ(edge halcore.Edge, handler func()) error {
	p.mu.Lock()
	pull := p.pull
	p.mu.Unlock()
	if err := p.io.In(pull, toEdge(edge)); err != nil {
		return fmt.Errorf("gpio %d: edge %s: %w", p.n, halcore.EdgeToString(edge), err)
	}
	p.mu.Lock()
	p.gen++
	p.handler = handler
	if edge == halcore.EdgeNone {
		p.handler = nil
	}
	p.mu.Unlock()
	p.f.kick()
	return nil
}

func (p *periphPin) ClearIRQ() error {
	p.mu.Lock()
	p.gen++
	p.handler = nil
	pull := p.pull
	p.mu.Unlock()
	if err := p.io.In(pull, gpio.NoEdge); err != nil {
		return fmt.Errorf("gpio %d: edge none: %w", p.n, err)
	}
	return nil
}

func (p *periphPin) armed() (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen, p.handler != nil
}

// handlerFor returns the handler installed at gen, nil once it was replaced
// or cleared.
func (p *periphPin) handlerFor(gen uint64) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return nil
	}
	return p.handler
}

func (p *periphPin) watch(ctx context.Context, gen uint64) {
	for ctx.Err() == nil {
		got := p.io.WaitForEdge(edgePoll)
		h := p.handlerFor(gen)
		if h == nil {
			return
		}
		if got {
			h()
		}
	}
}

func toPull(p halcore.Pull) gpio.Pull {
	switch p {
	case halcore.PullUp:
		return gpio.PullUp
	case halcore.PullDown:
		return gpio.PullDown
	default:
		return gpio.Float
	}
}

func toEdge(e halcore.Edge) gpio.Edge {
	switch e {
	case halcore.EdgeRising:
		return gpio.RisingEdge
	case halcore.EdgeFalling:
		return gpio.FallingEdge
	case halcore.EdgeBoth:
		return gpio.BothEdges
	default:
		return gpio.NoEdge
	}
}

// ----------------------------- SPI (periph) ----------------------------------

var errLengthMismatch = errors.New("spi: tx and rx lengths differ")

// PeriphSPI implements drivers.SPI on a periph SPI connection.
type PeriphSPI struct {
	mu   sync.Mutex
	c    conn.Conn
	port io.Closer
}

// OpenPeriphSPI opens id ("spi0.0" -> /dev/spidev0.0) in the given mode with
// 8-bit words.
func OpenPeriphSPI(id string, mode uint8, hz uint32) (*PeriphSPI, error) {
	name := "/dev/spidev" + strings.TrimPrefix(id, "spi")
	port, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("spi: open %s: %w", name, err)
	}
	c, err := port.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode(mode), 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("spi: connect %s: %w", name, err)
	}
	return &PeriphSPI{c: c, port: port}, nil
}

// Tx performs one full-duplex transfer. A nil w clocks out zeros; when both
// are set they must have the same length.
func (s *PeriphSPI) Tx(w, r []byte) error {
	n := max(len(w), len(r))
	if n == 0 {
		return nil
	}
	if w != nil && r != nil && len(w) != len(r) {
		return errLengthMismatch
	}
	if w == nil {
		w = make([]byte, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.c.Tx(w, r); err != nil {
		return fmt.Errorf("spi: transfer: %w", err)
	}
	return nil
}

func (s *PeriphSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}

func (s *PeriphSPI) Close() error { return s.port.Close() }

// periphSPIFactory opens buses on first use with the configured mode/speed.
type periphSPIFactory struct {
	board boards.Board
	mode  uint8
	hz    uint32
	open  func(id string, mode uint8, hz uint32) (drivers.SPI, error)

	mu    sync.Mutex
	buses map[string]drivers.SPI
	err   error
}

func newPeriphSPIFactory(b boards.Board, mode uint8, hz uint32) *periphSPIFactory {
	return &periphSPIFactory{
		board: b,
		mode:  mode,
		hz:    hz,
		open: func(id string, mode uint8, hz uint32) (drivers.SPI, error) {
			return OpenPeriphSPI(id, mode, hz)
		},
		buses: map[string]drivers.SPI{},
	}
}

func (f *periphSPIFactory) ByID(id string) (drivers.SPI, bool) {
	if !f.board.HasSPI(id) {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.buses[id]; ok {
		return b, true
	}
	b, err := f.open(id, f.mode, f.hz)
	if err != nil {
		f.err = err
		return nil, false
	}
	f.buses[id] = b
	return b, true
}

// LastError reports why the last ByID failed.
func (f *periphSPIFactory) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

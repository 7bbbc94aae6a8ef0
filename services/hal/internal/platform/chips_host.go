package platform

import (
	"sync"
	"time"

	"audiocode-go/drivers/ad1955"
	"audiocode-go/services/hal/internal/halcore"
	"audiocode-go/types"

	"tinygo.org/x/drivers"
)

// SRCSim emulates the SRC4392 SPI register file: byte 0 is R/W (bit 7) and
// the register address, byte 1 the auto-increment flag, data follows.
type SRCSim struct {
	mu   sync.Mutex
	regs [128]byte
	fail map[uint8]error
}

func NewSRCSim() *SRCSim { return &SRCSim{fail: map[uint8]error{}} }

func (s *SRCSim) Transfer(w, r []byte) (Access, error) {
	if len(w) < 3 {
		return Access{}, errShortFrame
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := Access{Addr: w[0] & 0x7F, Write: w[0]&0x80 == 0}
	if err := s.fail[acc.Addr]; err != nil {
		return acc, err
	}
	for i := 2; i < len(w); i++ {
		a := (int(acc.Addr) + i - 2) & 0x7F
		if acc.Write {
			s.regs[a] = w[i]
		} else if r != nil {
			r[i] = s.regs[a]
		}
		acc.Value = acc.Value<<8 | uint16(s.regs[a])
	}
	return acc, nil
}

// Reg returns the current value of addr.
func (s *SRCSim) Reg(addr uint8) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[addr&0x7F]
}

// SetReg presets addr, e.g. to emulate a status readback.
func (s *SRCSim) SetReg(addr uint8, v byte) {
	s.mu.Lock()
	s.regs[addr&0x7F] = v
	s.mu.Unlock()
}

// Fail makes every access to addr fail with err; nil clears it.
func (s *SRCSim) Fail(addr uint8, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, addr)
		return
	}
	s.fail[addr] = err
}

// DACSim emulates the write-only AD1955 control port.
type DACSim struct {
	mu    sync.Mutex
	words [4]uint16
	fail  map[uint8]error
}

func NewDACSim() *DACSim { return &DACSim{fail: map[uint8]error{}} }

func (d *DACSim) Transfer(w, r []byte) (Access, error) {
	if len(w) != 2 {
		return Access{}, errShortFrame
	}
	addr, v := ad1955.DecodeWord(uint16(w[0])<<8 | uint16(w[1]))
	acc := Access{Addr: addr, Write: true, Value: v}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[addr]; err != nil {
		return acc, err
	}
	d.words[addr] = v
	return acc, nil
}

// Word returns the last data written to addr (0..3).
func (d *DACSim) Word(addr uint8) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.words[addr&0x3]
}

// Fail makes writes to addr fail with err; nil clears it.
func (d *DACSim) Fail(addr uint8, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, addr)
		return
	}
	d.fail[addr] = err
}

// SimBoard is a complete host emulation of the audio board: fake pins, a
// shared SPI bus and both chips behind their chip-selects.
type SimBoard struct {
	Pins *HostPinFactory
	SPI  *HostSPI
	SRC  *SRCSim
	DAC  *DACSim

	cfg types.BoardConfig
}

// NewSimBoard wires the emulation for cfg. now stamps pin and bus activity;
// nil means time.Now.
func NewSimBoard(cfg types.BoardConfig, now func() time.Time) *SimBoard {
	irq := newIRQContext()
	b := &SimBoard{
		Pins: &HostPinFactory{Now: now, irq: irq},
		SPI:  &HostSPI{Now: now, irq: irq},
		SRC:  NewSRCSim(),
		DAC:  NewDACSim(),
		cfg:  cfg,
	}
	src, _ := b.Pins.pin(cfg.Pins.SRCSelect)
	dac, _ := b.Pins.pin(cfg.Pins.DACSelect)
	// Chip-selects idle high until the HAL configures them.
	src.level, dac.level = true, true
	b.SPI.Attach(src, b.SRC)
	b.SPI.Attach(dac, b.DAC)
	return b
}

// Buses returns a factory serving the shared bus under the configured id.
func (b *SimBoard) Buses() halcore.SPIBusFactory {
	return &hostSPIFactory{buses: map[string]drivers.SPI{b.cfg.SPI.ID: b.SPI}}
}

// Pin returns the fake behind a configured role, creating it if needed.
func (b *SimBoard) Pin(n int) *FakePin {
	p, _ := b.Pins.pin(n)
	return p
}

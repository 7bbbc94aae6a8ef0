package src4392

import (
	"fmt"

	"audiocode-go/drivers/regio"

	"tinygo.org/x/drivers"
)

// PortConfig describes one serial audio port.
type PortConfig struct {
	Format  AudioFormat
	Output  OutputSource
	Divider Divider
	Clock   ClockSource
	Master  bool
}

// RateConfig describes the rate converter stage.
type RateConfig struct {
	Source     Source
	Clock      ClockSource
	GroupDelay GroupDelay
	Deemphasis Deemphasis
	Enabled    bool
}

// Device is an SRC4392 behind its own chip-select.
type Device struct {
	regs *regio.Device
}

// New creates a Device. It does not touch the chip.
func New(bus drivers.SPI, cs regio.PinOutput) *Device {
	return &Device{regs: regio.New(bus, cs, protocol{})}
}

// ConfigurePort programs format, routing, role and clocking of p. The port
// mute bit is left as found.
func (d *Device) ConfigurePort(p Port, cfg PortConfig) error {
	ctl1, ctl2 := uint8(regPortACtl1), uint8(regPortACtl2)
	if p == PortB {
		ctl1, ctl2 = regPortBCtl1, regPortBCtl2
	}
	_, err := regio.Modify(d.regs, portControl1(ctl1), func(v PortControl1) PortControl1 {
		v.Format = cfg.Format
		v.Output = cfg.Output
		v.Master = cfg.Master
		return v
	})
	if err != nil {
		return fmt.Errorf("src4392: port %s control 1: %w", p, err)
	}
	_, err = regio.Modify(d.regs, portControl2(ctl2), func(v PortControl2) PortControl2 {
		v.Clock = cfg.Clock
		v.Divider = cfg.Divider
		return v
	})
	if err != nil {
		return fmt.Errorf("src4392: port %s control 2: %w", p, err)
	}
	return nil
}

// ConfigureSRC programs the rate converter input, clock and filters.
func (d *Device) ConfigureSRC(cfg RateConfig) error {
	_, err := regio.Modify(d.regs, srcControl1, func(v SRCControl1) SRCControl1 {
		v.Source = cfg.Source
		v.Clock = cfg.Clock
		v.Mute = !cfg.Enabled
		return v
	})
	if err != nil {
		return fmt.Errorf("src4392: src control 1: %w", err)
	}
	_, err = regio.Modify(d.regs, srcControl2, func(v SRCControl2) SRCControl2 {
		v.GroupDelay = cfg.GroupDelay
		v.Deemphasis = cfg.Deemphasis
		v.AutoDeemphasis = false
		return v
	})
	if err != nil {
		return fmt.Errorf("src4392: src control 2: %w", err)
	}
	return nil
}

// PowerUp releases the soft reset and clears every power-down bit, which
// starts the configured signal path. Reserved bits are left as found.
func (d *Device) PowerUp() error {
	_, err := regio.Modify(d.regs, powerReg, func(p Power) Power { return Power{rest: p.rest} })
	if err != nil {
		return fmt.Errorf("src4392: power: %w", err)
	}
	return nil
}

// Power reads the power-down and reset register.
func (d *Device) Power() (Power, error) { return regio.Get(d.regs, powerReg) }

// RefreshRatio reads the rate ratio readback through an identity
// read-modify-write cycle and returns the decoded value.
func (d *Device) RefreshRatio() (Ratio, error) {
	return regio.Modify(d.regs, ratioReg, regio.Identity[Ratio])
}

// protocol: byte 0 = R/W | address, byte 1 = auto-increment, then data.
type protocol struct{}

func (protocol) ReadFrame(w []byte, addr uint8, width int) (int, int, error) {
	n := hdrLen + width
	w[0] = flagRead | addr&0x7F
	w[1] = incFlag(width)
	clear(w[hdrLen:n])
	return n, hdrLen, nil
}

func (protocol) WriteFrame(w []byte, addr uint8, width int, v regio.Raw) (int, error) {
	w[0] = addr & 0x7F
	w[1] = incFlag(width)
	for i := 0; i < width; i++ {
		w[hdrLen+i] = byte(v >> (8 * (width - 1 - i)))
	}
	return hdrLen + width, nil
}

func incFlag(width int) byte {
	if width > 1 {
		return flagInc
	}
	return 0
}

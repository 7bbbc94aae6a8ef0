package ad1955

import (
	"fmt"

	"audiocode-go/drivers/regio"
	"audiocode-go/x/mathx"

	"tinygo.org/x/drivers"
)

// Control1 mirrors DAC Control Register 1.
type Control1 struct {
	DataFormat DataFormat
	SampleRate SampleRate
	PowerDown  bool
	Mute       bool
	Output     OutputFormat
	Width      DataWidth
	Serial     SerialFormat
}

// Control2 mirrors DAC Control Register 2.
type Control2 struct {
	MCLK MCLKMode
}

// Config is the complete DAC programming.
type Config struct {
	Control1
	Control2
	VolumeLeft  uint16 // 0..VolumeMax
	VolumeRight uint16
}

var control1 = regio.Register[Control1]{
	Addr:  regControl1,
	Width: 2,
	Decode: func(r regio.Raw) Control1 {
		return Control1{
			DataFormat: DataFormat(mathx.Field(r, 10, 1)),
			SampleRate: SampleRate(mathx.Field(r, 8, 2)),
			PowerDown:  mathx.Bit(r, 7),
			Mute:       mathx.Bit(r, 6),
			Output:     OutputFormat(mathx.Field(r, 4, 2)),
			Width:      DataWidth(mathx.Field(r, 2, 2)),
			Serial:     SerialFormat(mathx.Field(r, 0, 2)),
		}
	},
	Encode: func(v Control1) regio.Raw {
		var r regio.Raw
		r = mathx.WithField(r, 10, 1, regio.Raw(v.DataFormat))
		r = mathx.WithField(r, 8, 2, regio.Raw(v.SampleRate))
		r = mathx.WithBit(r, 7, v.PowerDown)
		r = mathx.WithBit(r, 6, v.Mute)
		r = mathx.WithField(r, 4, 2, regio.Raw(v.Output))
		r = mathx.WithField(r, 2, 2, regio.Raw(v.Width))
		return mathx.WithField(r, 0, 2, regio.Raw(v.Serial))
	},
}

var control2 = regio.Register[Control2]{
	Addr:   regControl2,
	Width:  2,
	Decode: func(r regio.Raw) Control2 { return Control2{MCLK: MCLKMode(mathx.Field(r, 0, 2))} },
	Encode: func(v Control2) regio.Raw { return mathx.WithField(0, 0, 2, regio.Raw(v.MCLK)) },
}

func volume(addr uint8) regio.Register[uint16] {
	return regio.Register[uint16]{
		Addr:   addr,
		Width:  2,
		Decode: func(r regio.Raw) uint16 { return uint16(r) },
		Encode: func(v uint16) regio.Raw { return regio.Raw(mathx.Clamp(v, 0, VolumeMax)) },
	}
}

// Device is an AD1955 behind its own chip-select.
type Device struct {
	regs *regio.Device
}

// New creates a Device. It does not touch the chip.
func New(bus drivers.SPI, cs regio.PinOutput) *Device {
	return &Device{regs: regio.New(bus, cs, protocol{})}
}

// Configure writes both control registers, then the channel volumes.
func (d *Device) Configure(cfg Config) error {
	if err := regio.Set(d.regs, control1, cfg.Control1); err != nil {
		return fmt.Errorf("ad1955: control 1: %w", err)
	}
	if err := regio.Set(d.regs, control2, cfg.Control2); err != nil {
		return fmt.Errorf("ad1955: control 2: %w", err)
	}
	if err := regio.Set(d.regs, volume(regVolumeLeft), cfg.VolumeLeft); err != nil {
		return fmt.Errorf("ad1955: volume left: %w", err)
	}
	if err := regio.Set(d.regs, volume(regVolumeRight), cfg.VolumeRight); err != nil {
		return fmt.Errorf("ad1955: volume right: %w", err)
	}
	return nil
}

type protocol struct{}

func (protocol) ReadFrame([]byte, uint8, int) (int, int, error) {
	return 0, 0, regio.ErrWriteOnly
}

func (protocol) WriteFrame(w []byte, addr uint8, width int, v regio.Raw) (int, error) {
	if width != 2 {
		return 0, regio.ErrWidth
	}
	word := EncodeWord(addr, uint16(v))
	w[0] = byte(word >> 8)
	w[1] = byte(word)
	return 2, nil
}

// EncodeWord returns the bus word for v written to addr.
func EncodeWord(addr uint8, v uint16) uint16 {
	return (v&VolumeMax)<<2 | uint16(addr&0x3)
}

// DecodeWord splits a bus word into register address and data.
func DecodeWord(word uint16) (addr uint8, v uint16) {
	return uint8(word & 0x3), word >> 2
}

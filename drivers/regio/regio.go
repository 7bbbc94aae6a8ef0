// Package regio implements register access for chips sitting behind a shared
// SPI bus and a dedicated chip-select line.
//
// A transaction is one bus transfer framed by the chip's Protocol while the
// chip-select is held low. Read-modify-write cycles are composed from typed
// register views (Register) and never interleave with other transfers as long
// as every transfer is issued from one goroutine; Exclusive reports a
// violation of that rule instead of corrupting a cycle.
package regio

import (
	"errors"
	"fmt"

	"audiocode-go/errcode"

	"tinygo.org/x/drivers"
)

// Raw is an undecoded register value, most significant byte first on the wire.
type Raw uint16

// PinOutput drives a digital output.
type PinOutput func(level bool) error

// Protocol frames register transactions for one chip family.
type Protocol interface {
	// ReadFrame writes a request for width bytes at addr into w. It returns
	// the frame length and the offset of the first data byte in the response.
	ReadFrame(w []byte, addr uint8, width int) (n, data int, err error)
	// WriteFrame writes v into w and returns the frame length.
	WriteFrame(w []byte, addr uint8, width int, v Raw) (n int, err error)
}

var (
	ErrWriteOnly = errors.New("regio: register is write-only")
	ErrWidth     = errors.New("regio: unsupported register width")
	ErrBusBusy   = errors.New("regio: bus already has a transfer in flight")
)

// Error reports a failed bus transaction.
type Error struct {
	Op   string // "read" or "write"
	Addr uint8
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("regio: %s 0x%02x: %v", e.Op, e.Addr, e.Err)
}
func (e *Error) Unwrap() error      { return e.Err }
func (e *Error) Code() errcode.Code { return errcode.Transaction }

const maxFrame = 8

// Device is one addressable chip on a shared bus.
type Device struct {
	bus   drivers.SPI
	cs    PinOutput
	proto Protocol

	// Fixed buffers to avoid per-call heap allocations.
	w [maxFrame]byte
	r [maxFrame]byte
}

// New binds a chip-select line to a bus. The chip-select must already be
// configured as an output driven high (deselected).
func New(bus drivers.SPI, cs PinOutput, proto Protocol) *Device {
	return &Device{bus: bus, cs: cs, proto: proto}
}

// Read fetches width bytes at addr.
func (d *Device) Read(addr uint8, width int) (Raw, error) {
	if width < 1 || width > 2 {
		return 0, &Error{Op: "read", Addr: addr, Err: ErrWidth}
	}
	n, off, err := d.proto.ReadFrame(d.w[:], addr, width)
	if err != nil {
		return 0, &Error{Op: "read", Addr: addr, Err: err}
	}
	clear(d.r[:n])
	if err := d.tx(d.w[:n], d.r[:n]); err != nil {
		return 0, &Error{Op: "read", Addr: addr, Err: err}
	}
	var v Raw
	for _, b := range d.r[off : off+width] {
		v = v<<8 | Raw(b)
	}
	return v, nil
}

// Write stores v into width bytes at addr.
func (d *Device) Write(addr uint8, width int, v Raw) error {
	if width < 1 || width > 2 {
		return &Error{Op: "write", Addr: addr, Err: ErrWidth}
	}
	n, err := d.proto.WriteFrame(d.w[:], addr, width, v)
	if err != nil {
		return &Error{Op: "write", Addr: addr, Err: err}
	}
	if err := d.tx(d.w[:n], nil); err != nil {
		return &Error{Op: "write", Addr: addr, Err: err}
	}
	return nil
}

// tx runs one transfer with the chip selected (active low).
func (d *Device) tx(w, r []byte) error {
	if err := d.cs(false); err != nil {
		return fmt.Errorf("chip-select: %w", err)
	}
	err := d.bus.Tx(w, r)
	if cerr := d.cs(true); err == nil && cerr != nil {
		err = fmt.Errorf("chip-select release: %w", cerr)
	}
	return err
}

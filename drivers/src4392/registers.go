// Package src4392 provides register views and configuration helpers for the
// SRC4392 sample-rate converter / audio router on an SPI bus.
package src4392

// Register addresses (page 0).
const (
	regPower     = 0x01 // power-down and reset
	regPortACtl1 = 0x03
	regPortACtl2 = 0x04
	regPortBCtl1 = 0x05
	regPortBCtl2 = 0x06
	regSRCCtl1   = 0x2D
	regSRCCtl2   = 0x2E
	regSRCRatio  = 0x32 // 0x32..0x33, read-only
)

// SPI framing.
const (
	flagRead = 0x80 // byte 0: R/W
	flagInc  = 0x80 // byte 1: auto-increment for multi-byte access
	hdrLen   = 2
)

// Port selects one of the two serial audio ports.
type Port uint8

const (
	PortA Port = iota
	PortB
)

func (p Port) String() string {
	if p == PortA {
		return "A"
	}
	return "B"
}

// AudioFormat is the serial data format of a port (xFMT2:0).
type AudioFormat uint8

const (
	LeftJustified24 AudioFormat = iota
	I2S
	RightJustified16
	RightJustified18
	RightJustified20
	RightJustified24
)

// OutputSource selects what a port drives on its data output (xOUTS1:0).
type OutputSource uint8

const (
	OutputLoopback  OutputSource = iota // the port's own input
	OutputOtherPort                     // the other port's input
	OutputReceiver                      // DIR
	OutputSRC                           // rate converter output
)

// ClockSource selects a master clock for a port or the rate converter.
type ClockSource uint8

const (
	ClockMCLK ClockSource = iota
	ClockRXCKI
	ClockRXCKO
)

// Divider is the port master clock divider (xDIV1:0).
type Divider uint8

const (
	Div128 Divider = iota
	Div256
	Div384
	Div512
)

// Source is the rate converter input (SRCIS1:0).
type Source uint8

const (
	SourcePortA Source = iota
	SourcePortB
	SourceReceiver
)

// GroupDelay is the interpolation filter group delay in samples (IGRP1:0).
type GroupDelay uint8

const (
	GroupDelay64 GroupDelay = iota
	GroupDelay32
	GroupDelay16
	GroupDelay8
)

// Deemphasis selects the de-emphasis filter (DEM1:0).
type Deemphasis uint8

const (
	DeemphasisNone Deemphasis = iota
	Deemphasis48k
	Deemphasis44k1
	Deemphasis32k
)

package src4392

import (
	"audiocode-go/drivers/regio"
	"audiocode-go/x/mathx"
)

// PortControl1 mirrors Port A/B Control Register 1.
type PortControl1 struct {
	Mute   bool
	Output OutputSource
	Master bool
	Format AudioFormat

	rest regio.Raw
}

// PortControl2 mirrors Port A/B Control Register 2.
type PortControl2 struct {
	Clock   ClockSource
	Divider Divider

	rest regio.Raw
}

// SRCControl1 mirrors SRC Control Register 1.
type SRCControl1 struct {
	Track  bool
	Mute   bool
	Clock  ClockSource
	Source Source

	rest regio.Raw
}

// SRCControl2 mirrors SRC Control Register 2.
type SRCControl2 struct {
	AutoDeemphasis bool
	Deemphasis     Deemphasis
	GroupDelay     GroupDelay

	rest regio.Raw
}

// Power mirrors the power-down and reset register. The chip's power-down
// bits are active low; the Down* fields report "powered down".
type Power struct {
	Reset     bool
	DownAll   bool
	DownSRC   bool
	DownPortB bool
	DownPortA bool
	DownTx    bool
	DownRx    bool

	rest regio.Raw
}

// Bits each view decodes. Anything outside the mask is carried through
// Decode/Encode untouched in the view's rest field.
const (
	maskPortControl1 regio.Raw = 0xBF
	maskPortControl2 regio.Raw = 0x0F
	maskSRCControl1  regio.Raw = 0x3F
	maskSRCControl2  regio.Raw = 0x73
	maskPower        regio.Raw = 0xBF
)

// Ratio is the measured input/output sample rate ratio: 5 integer bits and
// 11 fraction bits.
type Ratio struct {
	Integer  uint8
	Fraction uint16
}

func (r Ratio) Float() float32 {
	return float32(r.Integer) + float32(r.Fraction)/2048
}

func portControl1(addr uint8) regio.Register[PortControl1] {
	return regio.Register[PortControl1]{
		Addr:  addr,
		Width: 1,
		Decode: func(r regio.Raw) PortControl1 {
			return PortControl1{
				Mute:   mathx.Bit(r, 7),
				Output: OutputSource(mathx.Field(r, 4, 2)),
				Master: mathx.Bit(r, 3),
				Format: AudioFormat(mathx.Field(r, 0, 3)),
				rest:   r &^ maskPortControl1,
			}
		},
		Encode: func(v PortControl1) regio.Raw {
			r := v.rest &^ maskPortControl1
			r = mathx.WithBit(r, 7, v.Mute)
			r = mathx.WithField(r, 4, 2, regio.Raw(v.Output))
			r = mathx.WithBit(r, 3, v.Master)
			return mathx.WithField(r, 0, 3, regio.Raw(v.Format))
		},
	}
}

func portControl2(addr uint8) regio.Register[PortControl2] {
	return regio.Register[PortControl2]{
		Addr:  addr,
		Width: 1,
		Decode: func(r regio.Raw) PortControl2 {
			return PortControl2{
				Clock:   ClockSource(mathx.Field(r, 2, 2)),
				Divider: Divider(mathx.Field(r, 0, 2)),
				rest:    r &^ maskPortControl2,
			}
		},
		Encode: func(v PortControl2) regio.Raw {
			r := mathx.WithField(v.rest&^maskPortControl2, 2, 2, regio.Raw(v.Clock))
			return mathx.WithField(r, 0, 2, regio.Raw(v.Divider))
		},
	}
}

var srcControl1 = regio.Register[SRCControl1]{
	Addr:  regSRCCtl1,
	Width: 1,
	Decode: func(r regio.Raw) SRCControl1 {
		return SRCControl1{
			Track:  mathx.Bit(r, 5),
			Mute:   mathx.Bit(r, 4),
			Clock:  ClockSource(mathx.Field(r, 2, 2)),
			Source: Source(mathx.Field(r, 0, 2)),
			rest:   r &^ maskSRCControl1,
		}
	},
	Encode: func(v SRCControl1) regio.Raw {
		r := v.rest &^ maskSRCControl1
		r = mathx.WithBit(r, 5, v.Track)
		r = mathx.WithBit(r, 4, v.Mute)
		r = mathx.WithField(r, 2, 2, regio.Raw(v.Clock))
		return mathx.WithField(r, 0, 2, regio.Raw(v.Source))
	},
}

var srcControl2 = regio.Register[SRCControl2]{
	Addr:  regSRCCtl2,
	Width: 1,
	Decode: func(r regio.Raw) SRCControl2 {
		return SRCControl2{
			AutoDeemphasis: mathx.Bit(r, 6),
			Deemphasis:     Deemphasis(mathx.Field(r, 4, 2)),
			GroupDelay:     GroupDelay(mathx.Field(r, 0, 2)),
			rest:           r &^ maskSRCControl2,
		}
	},
	Encode: func(v SRCControl2) regio.Raw {
		r := v.rest &^ maskSRCControl2
		r = mathx.WithBit(r, 6, v.AutoDeemphasis)
		r = mathx.WithField(r, 4, 2, regio.Raw(v.Deemphasis))
		return mathx.WithField(r, 0, 2, regio.Raw(v.GroupDelay))
	},
}

var powerReg = regio.Register[Power]{
	Addr:  regPower,
	Width: 1,
	Decode: func(r regio.Raw) Power {
		return Power{
			Reset:     mathx.Bit(r, 7),
			DownAll:   !mathx.Bit(r, 5),
			DownSRC:   !mathx.Bit(r, 4),
			DownPortB: !mathx.Bit(r, 3),
			DownPortA: !mathx.Bit(r, 2),
			DownTx:    !mathx.Bit(r, 1),
			DownRx:    !mathx.Bit(r, 0),
			rest:      r &^ maskPower,
		}
	},
	Encode: func(v Power) regio.Raw {
		r := v.rest &^ maskPower
		r = mathx.WithBit(r, 7, v.Reset)
		r = mathx.WithBit(r, 5, !v.DownAll)
		r = mathx.WithBit(r, 4, !v.DownSRC)
		r = mathx.WithBit(r, 3, !v.DownPortB)
		r = mathx.WithBit(r, 2, !v.DownPortA)
		r = mathx.WithBit(r, 1, !v.DownTx)
		return mathx.WithBit(r, 0, !v.DownRx)
	},
}

var ratioReg = regio.Register[Ratio]{
	Addr:  regSRCRatio,
	Width: 2,
	Decode: func(r regio.Raw) Ratio {
		return Ratio{
			Integer:  uint8(mathx.Field(r, 11, 5)),
			Fraction: uint16(mathx.Field(r, 0, 11)),
		}
	},
	Encode: func(v Ratio) regio.Raw {
		r := mathx.WithField(0, 11, 5, regio.Raw(v.Integer))
		return mathx.WithField(r, 0, 11, regio.Raw(v.Fraction))
	},
}

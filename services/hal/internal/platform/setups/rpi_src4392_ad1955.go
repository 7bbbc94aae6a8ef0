package setups

import (
	"time"

	"audiocode-go/drivers/ad1955"
	"audiocode-go/drivers/src4392"
	"audiocode-go/types"
)

// Selected wires the SRC4392 + AD1955 board to a Raspberry Pi header.
//
// Port B of the SRC faces the Pi's I2S output and runs as slave; port A
// drives the DAC as master from the rate converter.
var Selected = types.BoardConfig{
	Name: "rpi-src4392-ad1955",
	SPI:  types.SPIConfig{ID: "spi0.0", Mode: 3, Hz: 1_000_000},
	Pins: types.Pins{
		SRCSelect:    16,
		DACSelect:    7,
		DACReset:     6,
		SRCReset:     5,
		SRCInterrupt: 13,
		Lock:         22,
		Ready:        23,
	},
	Reset: types.ResetTiming{
		Idle:   10 * time.Millisecond,
		Assert: 10 * time.Millisecond,
		Settle: 10 * time.Millisecond,
	},
	Audio: types.AudioConfig{
		DAC: ad1955.Config{
			Control1: ad1955.Control1{
				DataFormat: ad1955.PCM,
				SampleRate: ad1955.Rate192k,
				PowerDown:  false,
				Mute:       false,
				Output:     ad1955.Stereo,
				Width:      ad1955.Width24,
				Serial:     ad1955.I2S,
			},
			Control2:    ad1955.Control2{MCLK: ad1955.MCLK512fs},
			VolumeLeft:  ad1955.VolumeMax,
			VolumeRight: ad1955.VolumeMax,
		},
		InputPort: src4392.PortB,
		SRCInput: src4392.PortConfig{
			Format:  src4392.I2S,
			Output:  src4392.OutputLoopback,
			Divider: src4392.Div128,
			Clock:   src4392.ClockMCLK,
			Master:  false,
		},
		SRCRate: src4392.RateConfig{
			Source:     src4392.SourcePortB,
			Clock:      src4392.ClockMCLK,
			GroupDelay: src4392.GroupDelay64,
			Deemphasis: src4392.DeemphasisNone,
			Enabled:    true,
		},
		SRCOutput: src4392.PortConfig{
			Format:  src4392.I2S,
			Output:  src4392.OutputSRC,
			Divider: src4392.Div128,
			Clock:   src4392.ClockMCLK,
			Master:  true,
		},
	},
}

// Package ad1955 provides register views for the AD1955 audio DAC.
//
// The SPI port is write-only: every write is one 16-bit word carrying 14 data
// bits (D15..D2) and a 2-bit register address (D1..D0).
package ad1955

// Register addresses.
const (
	regControl1    = 0
	regControl2    = 1
	regVolumeLeft  = 2
	regVolumeRight = 3
)

// VolumeMax is full scale (0 dB).
const VolumeMax = 0x3FFF

// DataFormat selects PCM or DSD input.
type DataFormat uint8

const (
	PCM DataFormat = iota
	DSD
)

// SampleRate is the PCM sample-rate class.
type SampleRate uint8

const (
	Rate48k SampleRate = iota
	Rate96k
	Rate192k
)

// OutputFormat selects the channel mode.
type OutputFormat uint8

const (
	Stereo OutputFormat = iota
	MonoLeft
	MonoRight
)

// DataWidth is the PCM word length.
type DataWidth uint8

const (
	Width24 DataWidth = iota
	Width20
	Width18
	Width16
)

// SerialFormat is the PCM data protocol.
type SerialFormat uint8

const (
	I2S SerialFormat = iota
	RightJustified
	DSP
	LeftJustified
)

// MCLKMode is the master clock to sample rate ratio.
type MCLKMode uint8

const (
	MCLK256fs MCLKMode = iota
	MCLK512fs
	MCLK768fs
)

package types

import (
	"errors"
	"fmt"
	"time"

	"audiocode-go/drivers/ad1955"
	"audiocode-go/drivers/src4392"
)

// Board configuration for the SRC4392 + AD1955 audio path. Values are
// compile-time; see services/hal/internal/platform/setups.

type BoardConfig struct {
	Name  string
	SPI   SPIConfig
	Pins  Pins
	Reset ResetTiming
	Audio AudioConfig
}

// SPIConfig names the shared register bus.
type SPIConfig struct {
	ID   string // e.g. "spi0.0"
	Mode uint8  // 0..3
	Hz   uint32
}

// Pins holds GPIO numbers by role.
type Pins struct {
	SRCSelect    int
	DACSelect    int
	SRCReset     int // active low
	DACReset     int // active low
	SRCInterrupt int // active low
	Lock         int // active low
	Ready        int // active low
}

// ResetTiming bounds the reset pulse.
type ResetTiming struct {
	Idle   time.Duration // lines high before the pulse
	Assert time.Duration // minimum low time
	Settle time.Duration // wait after release before any register access
}

// AudioConfig is the routing/clock/format programming of both chips.
type AudioConfig struct {
	DAC       ad1955.Config
	SRCInput  src4392.PortConfig // port facing the host data source
	SRCRate   src4392.RateConfig
	SRCOutput src4392.PortConfig // port facing the DAC
	InputPort src4392.Port
}

// OutputPort is the SRC port that is not the input port.
func (a AudioConfig) OutputPort() src4392.Port {
	if a.InputPort == src4392.PortA {
		return src4392.PortB
	}
	return src4392.PortA
}

// Named returns the pins paired with their role names, in a stable order.
func (p Pins) Named() []NamedPin {
	return []NamedPin{
		{"src-cs", p.SRCSelect},
		{"dac-cs", p.DACSelect},
		{"src-reset", p.SRCReset},
		{"dac-reset", p.DACReset},
		{"src-int", p.SRCInterrupt},
		{"lock", p.Lock},
		{"ready", p.Ready},
	}
}

type NamedPin struct {
	Role string
	Num  int
}

var (
	errNoBus      = errors.New("spi bus id is empty")
	errBadSPIMode = errors.New("spi mode must be 0..3")
)

// Validate checks the configuration before any hardware is touched.
func (c BoardConfig) Validate() error {
	if c.SPI.ID == "" {
		return errNoBus
	}
	if c.SPI.Mode > 3 {
		return errBadSPIMode
	}
	seen := map[int]string{}
	for _, p := range c.Pins.Named() {
		if p.Num < 0 {
			return fmt.Errorf("pin %s: negative number %d", p.Role, p.Num)
		}
		if other, dup := seen[p.Num]; dup {
			return fmt.Errorf("pin %d used by both %s and %s", p.Num, other, p.Role)
		}
		seen[p.Num] = p.Role
	}
	if c.Reset.Assert <= 0 || c.Reset.Settle <= 0 {
		return fmt.Errorf("reset timing must be positive: %+v", c.Reset)
	}
	if c.Audio.SRCRate.Source != sourceOf(c.Audio.InputPort) {
		return fmt.Errorf("rate converter source %d is not input port %s", c.Audio.SRCRate.Source, c.Audio.InputPort)
	}
	return nil
}

func sourceOf(p src4392.Port) src4392.Source {
	if p == src4392.PortA {
		return src4392.SourcePortA
	}
	return src4392.SourcePortB
}

//go:build linux

package platform

import (
	"fmt"

	"audiocode-go/services/hal/internal/platform/boards"
	"audiocode-go/types"

	"periph.io/x/host/v3"
)

// Default initialises periph's host drivers and returns GPIO and spidev
// backed resources for cfg.
func Default(cfg types.BoardConfig) (Resources, error) {
	if _, err := host.Init(); err != nil {
		return Resources{}, fmt.Errorf("periph: host init: %w", err)
	}
	pins := NewPeriphPinFactory(boards.RaspberryPi)
	return Resources{
		Pins:  pins,
		Buses: newPeriphSPIFactory(boards.RaspberryPi, cfg.SPI.Mode, cfg.SPI.Hz),
		IRQ:   pins,
	}, nil
}

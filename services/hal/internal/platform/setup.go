package platform

import (
	"audiocode-go/services/hal/internal/halcore"
	"audiocode-go/services/hal/internal/platform/setups"
	"audiocode-go/types"
)

// Resources bundles the platform capabilities hal.Run consumes.
type Resources struct {
	Pins  halcore.PinFactory
	Buses halcore.SPIBusFactory
	// IRQ delivers edges from its own goroutine; nil when handlers are
	// called synchronously by the pin driver.
	IRQ halcore.IRQDispatcher
}

// Selected returns the compile-time board configuration.
func Selected() types.BoardConfig { return setups.Selected }

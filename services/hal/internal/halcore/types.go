// services/hal/internal/halcore/types.go
package halcore

import (
	"context"

	"tinygo.org/x/drivers"
)

// ---- Buses ----

// SPIBusFactory injects configured SPI buses by id (e.g. "spi0.0").
// Uses the TinyGo drivers.SPI interface so chip drivers stay portable.
type SPIBusFactory interface {
	ByID(id string) (drivers.SPI, bool)
}

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// GPIOPin is one digital line. Set reports drive failures so reset and
// chip-select control can treat them as fatal.
type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool) error
	Get() bool
	Number() int
}

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// IRQPin extends GPIOPin with interrupts. The handler runs on the
// platform's notification context and must not block.
type IRQPin interface {
	GPIOPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// PinFactory supplies GPIO pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (GPIOPin, bool)
}

// IRQDispatcher is implemented by platforms that deliver edges from their
// own goroutine. Run returns when ctx is done or delivery fails.
type IRQDispatcher interface {
	Run(ctx context.Context) error
}

// Util
func EdgeToString(e Edge) string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

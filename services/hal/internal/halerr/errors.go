// services/hal/internal/halerr/errors.go
package halerr

import "errors"

var (
	// Resources
	ErrUnknownBus = errors.New("unknown_bus")
	ErrUnknownPin = errors.New("unknown_pin")

	// Sequencing
	ErrNotReset = errors.New("not_reset") // register access attempted before reset completed
)

//go:build !linux

package platform

import "audiocode-go/types"

// Default returns the host emulation of the board; there is no hardware
// backend for this OS.
func Default(cfg types.BoardConfig) (Resources, error) {
	b := NewSimBoard(cfg, nil)
	return Resources{Pins: b.Pins, Buses: b.Buses()}, nil
}

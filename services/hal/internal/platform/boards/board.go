package boards

// Board describes what the SoC can do (controllers present, GPIO range).
// It must not include wiring choices (pins) or operating parameters (clock rates).
type Board struct {
	Name             string
	GPIOMin, GPIOMax int

	// Controllers present (identities only; e.g. "spi0.0", "spi0.1").
	SPI []string
}

// HasSPI reports whether id names a controller on this board.
func (b Board) HasSPI(id string) bool {
	for _, s := range b.SPI {
		if s == id {
			return true
		}
	}
	return false
}

// ValidPin reports whether n is inside the board's GPIO range.
func (b Board) ValidPin(n int) bool { return n >= b.GPIOMin && n <= b.GPIOMax }

// RaspberryPi covers the 40-pin header boards (BCM283x/BCM2711).
var RaspberryPi = Board{
	Name:    "raspberrypi",
	GPIOMin: 0,
	GPIOMax: 27,
	SPI:     []string{"spi0.0", "spi0.1", "spi1.0", "spi1.1", "spi1.2"},
}

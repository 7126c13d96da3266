package ese

import (
	"periph.io/x/conn/v3/physic"
)

// Bus moves one frame to and from the element.
//
// It is satisfied by periph's spi.Conn. Tx with a nil r is a write, with a
// nil w a read.
type Bus interface {
	Tx(w, r []byte) error
}

// Rail switches the supply of the element.
type Rail interface {
	// Enable powers the element.
	Enable() error
	// Disable removes power from the element.
	Disable() error
	// Release gives the rail back to the platform.
	Release() error
}

// Regulator is a handle to a named voltage regulator.
type Regulator interface {
	Enable() error
	Disable() error
	// Put releases the handle.
	Put() error
}

// RegulatorProvider looks up regulators by name.
type RegulatorProvider interface {
	Regulator(name string) (Regulator, error)
}

// RateRounder rounds a rate up to the closest rate a clock can produce.
//
// RoundRate(0) returns the lowest rate the clock supports.
type RateRounder interface {
	RoundRate(rate physic.Frequency) physic.Frequency
}

// Clock is a clock feeding the SPI controller.
type Clock interface {
	RateRounder
	SetRate(rate physic.Frequency) error
	Rate() physic.Frequency
	Enable() error
	Disable() error
	// Put releases the handle.
	Put() error
}

// ClockProvider looks up clocks by name.
type ClockProvider interface {
	Clock(name string) (Clock, error)
}

// WakeLock keeps the platform awake while a session is open.
type WakeLock interface {
	Acquire() error
	Release() error
}

// levelReader is implemented by rails that can report the level they drive.
type levelReader interface {
	Level() bool
}

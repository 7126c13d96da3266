package ese

import (
	"time"

	"github.com/northvolt/go-ese/ese/eseconf"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	// MaxFrameSize is the largest frame moved in one bus transaction.
	MaxFrameSize = 259

	// DefaultSpeed is the SPI clock rate used unless configured otherwise.
	DefaultSpeed = 8 * physic.MegaHertz

	// spiMode is clock idle low, data captured on the leading edge.
	spiMode = spi.Mode0

	spiBitsPerWord = 8
)

// Delays are the settle times around power transitions.
type Delays struct {
	// Open is waited after the element was powered at open.
	Open time.Duration
	// Close is waited after the element was powered down at close.
	Close time.Duration
	// Clock is waited after the clocks were enabled.
	Clock time.Duration
	// Regulator is waited after the regulator was enabled.
	Regulator time.Duration
}

// DefaultDelays returns the settle times of the P3 element.
func DefaultDelays() Delays {
	return Delays{
		Open:      2 * time.Millisecond,
		Close:     1 * time.Millisecond,
		Clock:     5 * time.Millisecond,
		Regulator: 20 * time.Millisecond,
	}
}

// Config is the configuration object for a device.
//
// Exactly one of PowerPin and Regulator selects the rail.
type Config struct {
	// Vendor affects how the clock rate is programmed.
	Vendor eseconf.Vendor
	// Speed is the SPI clock rate. Zero means DefaultSpeed.
	Speed physic.Frequency

	// Bus is used for transfers when set. Otherwise Port is connected in
	// mode 0 with 8 bits per word.
	Bus  Bus
	Port spi.Port

	// PowerPin is a GPIO line driving the rail.
	PowerPin gpio.PinIO
	// Regulator is the name of the regulator feeding the rail, looked up in
	// Regulators every time the rail switches.
	Regulator  string
	Regulators RegulatorProvider

	// SecureClock makes the driver own the "pclk" and "sclk" clocks from
	// Clocks. The platform performs the bus I/O in that setup, so Bus and
	// Port are optional and raw transfers are disabled.
	SecureClock bool
	Clocks      ClockProvider

	// WordSize pads writes to a multiple of this many bytes when set. Some
	// SPI controllers insert clock gaps on partial words.
	WordSize int
	// DisableRawTransfer turns off the legacy raw transfer command.
	DisableRawTransfer bool

	// WakeLock is held while a session is open.
	WakeLock WakeLock

	Delays Delays

	// DebugLevel is the initial debug level.
	DebugLevel DebugLevel
	// Debug is used for debug output.
	Debug Logger
}

// ConfigP3_GPIODefault returns a default config for an element powered
// through a GPIO line on a SPI port.
func ConfigP3_GPIODefault(port spi.Port, pin gpio.PinIO) Config {
	return Config{
		Vendor:     eseconf.VendorDefault,
		Speed:      DefaultSpeed,
		Port:       port,
		PowerPin:   pin,
		Delays:     DefaultDelays(),
		DebugLevel: DebugFull,
	}
}

// ConfigP3_RegulatorDefault returns a default config for an element powered
// through a named regulator.
func ConfigP3_RegulatorDefault(port spi.Port, regulator string, regulators RegulatorProvider) Config {
	return Config{
		Vendor:     eseconf.VendorDefault,
		Speed:      DefaultSpeed,
		Port:       port,
		Regulator:  regulator,
		Regulators: regulators,
		Delays:     DefaultDelays(),
		DebugLevel: DebugFull,
	}
}

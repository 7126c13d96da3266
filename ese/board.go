package ese

import (
	"fmt"

	"github.com/northvolt/go-ese/ese/eseconf"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// qualcommWordSize is the bus word of Qualcomm SPI controllers.
const qualcommWordSize = 4

// ConfigFromBoard builds the config of the element wired as b. The host
// drivers must be initialized.
//
// The SPI port is opened unless the board leaves bus I/O to a secure
// platform, and is closed by Dev.Close.
func ConfigFromBoard(b eseconf.Board) (Config, error) {
	if err := b.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	var cfg Config
	if b.LDOControl {
		cfg = ConfigP3_RegulatorDefault(nil, b.PVDDRegulator, SysfsRegulators{})
	} else {
		pin := gpioreg.ByName(b.PVDDGPIO)
		if pin == nil {
			return Config{}, fmt.Errorf("%w: no gpio %q", ErrNoPowerBackend, b.PVDDGPIO)
		}
		cfg = ConfigP3_GPIODefault(nil, pin)
	}

	cfg.Vendor = b.APVendor
	cfg.SecureClock = b.SecureClock
	if b.MaxSpeedHz > 0 {
		cfg.Speed = physic.Frequency(b.MaxSpeedHz) * physic.Hertz
	}
	cfg.WordSize = b.WordSize
	if cfg.WordSize == 0 && b.APVendor == eseconf.VendorQualcomm {
		cfg.WordSize = qualcommWordSize
	}
	if b.WakeLock != "" {
		cfg.WakeLock = SysfsWakeLock{Name: b.WakeLock}
	}

	var port spi.PortCloser
	if !b.SecureClock || b.SPIPort != "" {
		var err error
		if port, err = spireg.Open(b.SPIPort); err != nil {
			return Config{}, fmt.Errorf("ese: open spi port %q: %w", b.SPIPort, err)
		}
		cfg.Port = port
	}

	if b.SecureClock {
		clocks := Clocks{}
		for _, c := range b.Clocks {
			clk := &DividerClock{
				Name:       c.Name,
				Source:     physic.Frequency(c.SourceHz) * physic.Hertz,
				MaxDivider: c.MaxDivider,
			}
			if c.GateGPIO != "" {
				gate := gpioreg.ByName(c.GateGPIO)
				if gate == nil {
					err := fmt.Errorf("%w: no gate gpio %q for %s", ErrClockUnavailable, c.GateGPIO, c.Name)
					return Config{}, closePort(port, err)
				}
				clk.Gate = gate
			}
			if c.Name == clockMain && port != nil {
				clk.Port = port
			}
			clocks[c.Name] = clk
		}
		cfg.Clocks = clocks
	}
	return cfg, nil
}

func closePort(port spi.PortCloser, err error) error {
	if port == nil {
		return err
	}
	return multierr.Append(err, port.Close())
}

// NewBoardDev attaches to the element wired as b.
func NewBoardDev(b eseconf.Board, debug Logger) (*Dev, error) {
	cfg, err := ConfigFromBoard(b)
	if err != nil {
		return nil, err
	}
	cfg.Debug = debug
	d, err := New(cfg)
	if err != nil {
		if port, ok := cfg.Port.(spi.PortCloser); ok {
			err = closePort(port, err)
		}
		return nil, err
	}
	return d, nil
}

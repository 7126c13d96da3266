package ese

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/northvolt/go-ese/ese/eseconf"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
)

const (
	clockAux  = "pclk"
	clockMain = "sclk"
)

// Dev is a P3 secure element bound to one bus endpoint.
//
// Dev is safe for concurrent use. Sessions are serialized by the device
// lock, frames by the buffer lock.
type Dev struct {
	cfg Config
	log Logger

	bus  Bus
	rail Rail
	pclk Clock
	sclk Clock

	// device lock
	mu     sync.Mutex
	opened bool
	users  int
	closed atomic.Bool

	// buffer lock
	bufMu sync.Mutex
	buf   []byte
	rxBuf []byte

	// power lock, always taken last
	powerMu sync.Mutex
	powered bool
	clockOn bool
	rate    physic.Frequency

	debugLevel atomic.Uint32
}

// State is a snapshot of the device.
type State struct {
	Open        bool
	Users       int
	Powered     bool
	ClockOn     bool
	Rate        physic.Frequency
	Vendor      eseconf.Vendor
	SecureClock bool
	DebugLevel  DebugLevel
}

// New attaches to the element described by cfg.
//
// The rail is acquired and switched off, the bus is connected and, when the
// driver owns the clocks, both clocks are looked up. Anything acquired is
// released again when a later step fails.
func New(cfg Config) (*Dev, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	d := &Dev{
		cfg:  cfg,
		log:  getLogger(cfg),
		rate: cfg.Speed,
	}
	d.debugLevel.Store(uint32(cfg.DebugLevel))

	if err := d.attach(); err != nil {
		if uerr := d.release(false); uerr != nil {
			d.infof("attach unwind: %v", uerr)
		}
		return nil, err
	}
	d.debugf("attached %s vendor, %s, secure clock %t", cfg.Vendor, cfg.Speed, cfg.SecureClock)
	return d, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Speed == 0 {
		cfg.Speed = DefaultSpeed
	}
	switch {
	case cfg.Speed < 0:
		return fmt.Errorf("%w: negative speed %d", ErrInvalidConfig, cfg.Speed)
	case cfg.PowerPin == nil && cfg.Regulator == "":
		return ErrNoPowerBackend
	case cfg.PowerPin != nil && cfg.Regulator != "":
		return fmt.Errorf("%w: both power pin and regulator set", ErrInvalidConfig)
	case cfg.Regulator != "" && cfg.Regulators == nil:
		return fmt.Errorf("%w: no regulator provider for %q", ErrNoPowerBackend, cfg.Regulator)
	case cfg.SecureClock && cfg.Clocks == nil:
		return fmt.Errorf("%w: no clock provider", ErrClockUnavailable)
	case !cfg.SecureClock && cfg.Bus == nil && cfg.Port == nil:
		return fmt.Errorf("%w: no bus", ErrInvalidConfig)
	case cfg.Vendor > eseconf.VendorSLSI:
		return fmt.Errorf("%w: vendor %d", ErrInvalidConfig, cfg.Vendor)
	case cfg.WordSize < 0 || cfg.WordSize > MaxFrameSize:
		return fmt.Errorf("%w: word size %d", ErrInvalidConfig, cfg.WordSize)
	}
	return nil
}

func (d *Dev) attach() error {
	rail, err := d.newRail()
	if err != nil {
		return err
	}
	d.rail = &railDebug{"pvdd", debugLogger{d}, rail}

	switch {
	case d.cfg.Bus != nil:
		d.bus = d.cfg.Bus
	case d.cfg.Port != nil:
		c, err := d.cfg.Port.Connect(d.cfg.Speed, spiMode, spiBitsPerWord)
		if err != nil {
			return fmt.Errorf("ese: connect spi: %w", err)
		}
		d.bus = c
	}
	if d.bus != nil {
		d.bus = &busDebug{"spi", debugLogger{d}, d.bus}
	}

	if d.cfg.SecureClock {
		if d.pclk, err = d.cfg.Clocks.Clock(clockAux); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrClockUnavailable, clockAux, err)
		}
		if d.sclk, err = d.cfg.Clocks.Clock(clockMain); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrClockUnavailable, clockMain, err)
		}
	}

	d.buf = make([]byte, MaxFrameSize)
	d.rxBuf = make([]byte, MaxFrameSize)
	return nil
}

// release gives back what attach acquired, in reverse order. The bus stays
// with the caller unless the device is being detached.
func (d *Dev) release(detach bool) error {
	var err error
	d.buf, d.rxBuf = nil, nil
	if d.sclk != nil {
		err = multierr.Append(err, d.sclk.Put())
		d.sclk = nil
	}
	if d.pclk != nil {
		err = multierr.Append(err, d.pclk.Put())
		d.pclk = nil
	}
	if detach {
		if c, ok := d.cfg.Bus.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		} else if c, ok := d.cfg.Port.(io.Closer); ok && d.cfg.Bus == nil {
			err = multierr.Append(err, c.Close())
		}
	}
	d.bus = nil
	if d.rail != nil {
		err = multierr.Append(err, d.rail.Release())
		d.rail = nil
	}
	return err
}

// Close detaches from the element.
//
// An open session is torn down and the element powered off. The bus is
// closed when Bus or Port implement io.Closer. Every step runs even when an
// earlier one fails.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed.Swap(true) {
		return nil
	}

	var err error
	if d.opened {
		d.opened = false
		d.users = 0
		err = multierr.Append(err, d.setPower(false))
		err = multierr.Append(err, d.releaseWakeLock())
	}
	if d.cfg.SecureClock {
		err = multierr.Append(err, d.clockControl(false))
	}
	d.bufMu.Lock()
	err = multierr.Append(err, d.release(true))
	d.bufMu.Unlock()
	if err != nil {
		d.infof("detach: %v", err)
	}
	return err
}

// State returns a snapshot of the device.
func (d *Dev) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.powerMu.Lock()
	defer d.powerMu.Unlock()
	return State{
		Open:        d.opened,
		Users:       d.users,
		Powered:     d.powered,
		ClockOn:     d.clockOn,
		Rate:        d.rate,
		Vendor:      d.cfg.Vendor,
		SecureClock: d.cfg.SecureClock,
		DebugLevel:  DebugLevel(d.debugLevel.Load()),
	}
}

func (s State) String() string {
	return fmt.Sprintf("open=%t users=%d powered=%t clock=%t rate=%s vendor=%s secure=%t debug=%s",
		s.Open, s.Users, s.Powered, s.ClockOn, s.Rate, s.Vendor, s.SecureClock, s.DebugLevel)
}

package ese

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// gpioRail powers the element by driving a GPIO line high.
type gpioRail struct {
	pin gpio.PinIO
}

// newGPIORail claims pin as an output driven low.
func newGPIORail(pin gpio.PinIO) (Rail, error) {
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoPowerBackend, pin, err)
	}
	return &gpioRail{pin: pin}, nil
}

func (r *gpioRail) Enable() error {
	return r.pin.Out(gpio.High)
}

func (r *gpioRail) Disable() error {
	return r.pin.Out(gpio.Low)
}

func (r *gpioRail) Release() error {
	return r.pin.Halt()
}

func (r *gpioRail) Level() bool {
	return r.pin.Read() == gpio.High
}

// SpeedLimiter is implemented by spi.PortCloser.
type SpeedLimiter interface {
	LimitSpeed(f physic.Frequency) error
}

// DividerClock is a clock derived from a fixed source by an integer
// divider, such as the clock of a SPI controller.
//
// Gate, when set, is driven high while the clock is enabled. Port, when
// set, is limited to the programmed rate.
type DividerClock struct {
	Name       string
	Source     physic.Frequency
	MaxDivider int
	Gate       gpio.PinOut
	Port       SpeedLimiter

	mu  sync.Mutex
	div int
}

var errDividerConfig = errors.New("ese: divider clock needs a source and a max divider")

// RoundRate returns the lowest rate the clock produces at or above rate,
// or its highest rate when rate is above the source.
func (c *DividerClock) RoundRate(rate physic.Frequency) physic.Frequency {
	return c.Source / physic.Frequency(c.divider(rate))
}

func (c *DividerClock) divider(rate physic.Frequency) int {
	maxDiv := max(c.MaxDivider, 1)
	if rate <= 0 {
		return maxDiv
	}
	div := int64(c.Source / rate)
	switch {
	case div < 1:
		return 1
	case div > int64(maxDiv):
		return maxDiv
	}
	return int(div)
}

func (c *DividerClock) SetRate(rate physic.Frequency) error {
	if c.Source <= 0 || c.MaxDivider < 1 {
		return errDividerConfig
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.div = c.divider(rate)
	if c.Port != nil {
		return c.Port.LimitSpeed(c.Source / physic.Frequency(c.div))
	}
	return nil
}

// Rate returns the programmed rate. An unprogrammed clock runs at the
// source rate.
func (c *DividerClock) Rate() physic.Frequency {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.div == 0 {
		return c.Source
	}
	return c.Source / physic.Frequency(c.div)
}

func (c *DividerClock) Enable() error {
	if c.Gate == nil {
		return nil
	}
	return c.Gate.Out(gpio.High)
}

func (c *DividerClock) Disable() error {
	if c.Gate == nil {
		return nil
	}
	return c.Gate.Out(gpio.Low)
}

func (c *DividerClock) Put() error {
	return nil
}

func (c *DividerClock) String() string {
	return fmt.Sprintf("%s(%s/%d)", c.Name, c.Source, c.MaxDivider)
}

// Clocks is a ClockProvider backed by a map.
type Clocks map[string]Clock

func (c Clocks) Clock(name string) (Clock, error) {
	clk, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("ese: no clock %q", name)
	}
	return clk, nil
}

package ese

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

var errFake = errors.New("fake failure")

// recorder collects the hardware events of a test in order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := r.events
	r.events = nil
	return ev
}

type fakeClock struct {
	*DividerClock
	rec       *recorder
	enableErr error
}

func (c *fakeClock) SetRate(rate physic.Frequency) error {
	c.rec.add("%s rate %s", c.Name, rate)
	return c.DividerClock.SetRate(rate)
}

func (c *fakeClock) Enable() error {
	c.rec.add("%s enable", c.Name)
	return c.enableErr
}

func (c *fakeClock) Disable() error {
	c.rec.add("%s disable", c.Name)
	return nil
}

func (c *fakeClock) Put() error {
	c.rec.add("%s put", c.Name)
	return nil
}

func newFakeClocks(rec *recorder) (Clocks, *fakeClock, *fakeClock) {
	pclk := &fakeClock{DividerClock: &DividerClock{Name: "pclk", Source: 100 * physic.MegaHertz, MaxDivider: 1}, rec: rec}
	sclk := &fakeClock{DividerClock: &DividerClock{Name: "sclk", Source: 100 * physic.MegaHertz, MaxDivider: 256}, rec: rec}
	return Clocks{"pclk": pclk, "sclk": sclk}, pclk, sclk
}

type fakeRegulators struct {
	rec        *recorder
	getErr     error
	enableErr  error
	disableErr error
}

func (p *fakeRegulators) Regulator(name string) (Regulator, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
	p.rec.add("get %s", name)
	return &fakeRegulator{name: name, p: p}, nil
}

type fakeRegulator struct {
	name string
	p    *fakeRegulators
}

func (r *fakeRegulator) Enable() error {
	r.p.rec.add("%s enable", r.name)
	return r.p.enableErr
}

func (r *fakeRegulator) Disable() error {
	r.p.rec.add("%s disable", r.name)
	return r.p.disableErr
}

func (r *fakeRegulator) Put() error {
	r.p.rec.add("%s put", r.name)
	return nil
}

type fakeWakeLock struct {
	rec *recorder
}

func (w fakeWakeLock) Acquire() error {
	w.rec.add("wake lock")
	return nil
}

func (w fakeWakeLock) Release() error {
	w.rec.add("wake unlock")
	return nil
}

// failingBus fails every transfer.
type failingBus struct{}

func (failingBus) Tx(w, r []byte) error {
	return errFake
}

func newPlayback(ops ...conntest.IO) *spitest.Playback {
	return &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
}

func newPin() *gpiotest.Pin {
	return &gpiotest.Pin{N: "PVDD", Num: 25, L: gpio.High}
}

// newTestDev attaches a GPIO powered device that plays back ops. Closing
// the device verifies that every op was consumed.
func newTestDev(t *testing.T, ops ...conntest.IO) (*Dev, *gpiotest.Pin) {
	t.Helper()
	return newTestDevWith(t, nil, ops...)
}

func newTestDevWith(t *testing.T, mutate func(*Config), ops ...conntest.IO) (*Dev, *gpiotest.Pin) {
	t.Helper()
	pin := newPin()
	cfg := ConfigP3_GPIODefault(newPlayback(ops...), pin)
	cfg.Delays = Delays{}
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, d.Close())
	})
	return d, pin
}

// newSecureDev attaches a regulator powered device owning its clocks.
func newSecureDev(t *testing.T, rec *recorder, mutate func(*Config)) *Dev {
	t.Helper()
	clocks, _, _ := newFakeClocks(rec)
	cfg := ConfigP3_RegulatorDefault(nil, "pvdd", &fakeRegulators{rec: rec})
	cfg.SecureClock = true
	cfg.Clocks = clocks
	cfg.Delays = Delays{}
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, d.Close())
	})
	return d
}

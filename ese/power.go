package ese

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// setPower switches the element on or off. Switching to the current state
// does nothing.
//
// Power-up programs and enables the clocks the driver owns before the rail.
// A failing rail is reported and leaves the element off. Power-down runs
// every step and returns the combined failures.
func (d *Dev) setPower(on bool) error {
	d.powerMu.Lock()
	defer d.powerMu.Unlock()
	if d.powered == on {
		return nil
	}
	if on {
		return d.powerUp()
	}
	return d.powerDown()
}

func (d *Dev) powerUp() error {
	clockWasOn := d.clockOn
	if d.cfg.SecureClock {
		d.programClock()
		if err := d.clocks(true); err != nil {
			d.infof("power up: %v", err)
		}
	}
	if err := d.rail.Enable(); err != nil {
		if d.cfg.SecureClock && !clockWasOn {
			if cerr := d.clocks(false); cerr != nil {
				d.infof("power up rollback: %v", cerr)
			}
		}
		return err
	}
	d.powered = true
	d.debugf("powered on")
	return nil
}

func (d *Dev) powerDown() error {
	var err error
	if rerr := d.rail.Disable(); rerr != nil {
		d.infof("power down: %v", rerr)
		err = multierr.Append(err, rerr)
	}
	if d.cfg.SecureClock {
		if cerr := d.clocks(false); cerr != nil {
			d.infof("power down: %v", cerr)
			err = multierr.Append(err, cerr)
		}
	}
	d.powered = false
	d.debugf("powered off")
	return err
}

// programClock sets the main clock to the configured speed. A rate the
// clock can't produce is logged and the clock left as is.
func (d *Dev) programClock() {
	rate, err := programRate(d.cfg.Vendor, d.sclk, d.cfg.Speed)
	if err != nil {
		d.infof("clock rate %s: %v", d.cfg.Speed, err)
		return
	}
	if err := d.sclk.SetRate(rate); err != nil {
		d.infof("set clock rate %s: %v", rate, err)
		return
	}
	d.rate = d.sclk.Rate()
	d.debugf("clock rate %s, requested %s", d.rate, d.cfg.Speed)
}

// clockControl switches the clocks outside of the power sequence. Without
// driver owned clocks it does nothing.
func (d *Dev) clockControl(on bool) error {
	if !d.cfg.SecureClock {
		d.debugf("clock control %t: clock not owned", on)
		return nil
	}
	d.powerMu.Lock()
	defer d.powerMu.Unlock()
	if d.pclk == nil {
		return ErrClosed
	}
	return d.clocks(on)
}

// clocks enables the aux clock before the main clock and disables them in
// reverse. Must hold powerMu.
func (d *Dev) clocks(on bool) error {
	if d.clockOn == on {
		return nil
	}
	if on {
		if err := d.pclk.Enable(); err != nil {
			return fmt.Errorf("ese: enable %s: %w", clockAux, err)
		}
		if err := d.sclk.Enable(); err != nil {
			return multierr.Combine(
				fmt.Errorf("ese: enable %s: %w", clockMain, err),
				d.pclk.Disable(),
			)
		}
		d.clockOn = true
		sleep(d.cfg.Delays.Clock)
		return nil
	}

	err := multierr.Combine(d.sclk.Disable(), d.pclk.Disable())
	d.clockOn = false
	if err != nil {
		return fmt.Errorf("ese: disable clocks: %w", err)
	}
	return nil
}

// regulatorRail powers the element from a named regulator. The regulator is
// looked up again on every switch.
type regulatorRail struct {
	name   string
	p      RegulatorProvider
	settle time.Duration
	held   Regulator
}

func (r *regulatorRail) get() (Regulator, error) {
	reg, err := r.p.Regulator(r.name)
	if err != nil {
		return nil, fmt.Errorf("%w: regulator %s: %v", ErrNoPowerBackend, r.name, err)
	}
	return reg, nil
}

func (r *regulatorRail) Enable() error {
	reg, err := r.get()
	if err != nil {
		return err
	}
	if err := reg.Enable(); err != nil {
		return multierr.Combine(fmt.Errorf("ese: enable regulator %s: %w", r.name, err), reg.Put())
	}
	r.held = reg
	sleep(r.settle)
	return nil
}

func (r *regulatorRail) Disable() error {
	reg := r.held
	r.held = nil
	if reg == nil {
		var err error
		if reg, err = r.get(); err != nil {
			return err
		}
	}
	return multierr.Combine(reg.Disable(), reg.Put())
}

func (r *regulatorRail) Release() error {
	if r.held == nil {
		return nil
	}
	err := r.held.Put()
	r.held = nil
	return err
}

// newRail acquires the configured rail and leaves the element unpowered.
func (d *Dev) newRail() (Rail, error) {
	if d.cfg.PowerPin != nil {
		return newGPIORail(d.cfg.PowerPin)
	}
	r := &regulatorRail{name: d.cfg.Regulator, p: d.cfg.Regulators, settle: d.cfg.Delays.Regulator}
	reg, err := r.get()
	if err != nil {
		return nil, err
	}
	if err := reg.Put(); err != nil {
		return nil, fmt.Errorf("%w: regulator %s: %v", ErrNoPowerBackend, r.name, err)
	}
	return r, nil
}

// railLevel reports the level of a GPIO rail for diagnostics.
func (d *Dev) railLevel() string {
	r := d.rail
	if rd, ok := r.(*railDebug); ok {
		r = rd.next
	}
	if lr, ok := r.(levelReader); ok {
		if lr.Level() {
			return "high"
		}
		return "low"
	}
	return "n/a"
}

func sleep(t time.Duration) {
	if t > 0 {
		time.Sleep(t)
	}
}

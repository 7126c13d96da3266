package ese

import (
	"fmt"
	"testing"

	"github.com/northvolt/go-ese/ese/eseconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

func TestPowerSequenceSecure(t *testing.T) {
	rec := &recorder{}
	d := newSecureDev(t, rec, func(cfg *Config) {
		cfg.WakeLock = fakeWakeLock{rec}
	})
	rec.take()

	h, err := d.Open()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"wake lock",
		fmt.Sprintf("sclk rate %s", DefaultSpeed),
		"pclk enable",
		"sclk enable",
		"get pvdd",
		"pvdd enable",
	}, rec.take())

	s := d.State()
	assert.True(t, s.Powered)
	assert.True(t, s.ClockOn)
	assert.Equal(t, 100*physic.MegaHertz/12, s.Rate)

	require.NoError(t, h.Close())
	assert.Equal(t, []string{
		"pvdd disable",
		"pvdd put",
		"sclk disable",
		"pclk disable",
		"wake unlock",
	}, rec.take())

	s = d.State()
	assert.False(t, s.Powered)
	assert.False(t, s.ClockOn)
}

func TestPowerIdempotent(t *testing.T) {
	rec := &recorder{}
	d := newSecureDev(t, rec, nil)
	rec.take()

	require.NoError(t, d.setPower(true))
	first := rec.take()
	assert.NotEmpty(t, first)
	require.NoError(t, d.setPower(true))
	assert.Empty(t, rec.take())

	require.NoError(t, d.setPower(false))
	assert.NotEmpty(t, rec.take())
	require.NoError(t, d.setPower(false))
	assert.Empty(t, rec.take())
}

func TestPowerVendorRate(t *testing.T) {
	tests := []struct {
		vendor eseconf.Vendor
		rate   physic.Frequency
	}{
		{eseconf.VendorDefault, DefaultSpeed},
		{eseconf.VendorQualcomm, 100 * physic.MegaHertz / 13},
		{eseconf.VendorSLSI, 2 * DefaultSpeed},
	}
	for _, tt := range tests {
		t.Run(tt.vendor.String(), func(t *testing.T) {
			rec := &recorder{}
			d := newSecureDev(t, rec, func(cfg *Config) {
				cfg.Vendor = tt.vendor
			})
			rec.take()

			require.NoError(t, d.setPower(true))
			assert.Contains(t, rec.take(), fmt.Sprintf("sclk rate %s", tt.rate))
		})
	}
}

func TestPowerUnsatisfiableRate(t *testing.T) {
	rec := &recorder{}
	d := newSecureDev(t, rec, func(cfg *Config) {
		cfg.Vendor = eseconf.VendorQualcomm
		cfg.Speed = 100 * physic.KiloHertz
	})
	rec.take()

	// the rate is left alone, the element still powers up
	require.NoError(t, d.setPower(true))
	assert.Equal(t, []string{
		"pclk enable",
		"sclk enable",
		"get pvdd",
		"pvdd enable",
	}, rec.take())
	assert.Equal(t, 100*physic.KiloHertz, d.State().Rate)
}

func TestPowerDownBestEffort(t *testing.T) {
	rec := &recorder{}
	regs := &fakeRegulators{rec: rec}
	d := newSecureDev(t, rec, func(cfg *Config) {
		cfg.Regulators = regs
	})
	require.NoError(t, d.setPower(true))
	rec.take()

	regs.disableErr = errFake
	err := d.setPower(false)
	assert.ErrorIs(t, err, errFake)
	assert.Equal(t, []string{
		"pvdd disable",
		"pvdd put",
		"sclk disable",
		"pclk disable",
	}, rec.take())
	assert.False(t, d.State().Powered)
	regs.disableErr = nil
}

func TestPowerGPIO(t *testing.T) {
	d, pin := newTestDev(t)
	assert.Equal(t, gpio.Low, pin.Read())

	require.NoError(t, d.setPower(true))
	assert.Equal(t, gpio.High, pin.Read())
	assert.Equal(t, "high", d.railLevel())

	require.NoError(t, d.setPower(false))
	assert.Equal(t, gpio.Low, pin.Read())
	assert.Equal(t, "low", d.railLevel())
}

func TestClockControl(t *testing.T) {
	rec := &recorder{}
	d := newSecureDev(t, rec, nil)
	h, err := d.Open()
	require.NoError(t, err)
	defer h.Close()
	rec.take()

	require.NoError(t, h.DisableClock())
	assert.Equal(t, []string{"sclk disable", "pclk disable"}, rec.take())
	require.NoError(t, h.DisableClock())
	assert.Empty(t, rec.take())

	require.NoError(t, h.EnableClock())
	assert.Equal(t, []string{"pclk enable", "sclk enable"}, rec.take())
	require.NoError(t, h.EnableClock())
	assert.Empty(t, rec.take())
	assert.True(t, d.State().ClockOn)
}

func TestClockControlNotOwned(t *testing.T) {
	d, _ := newTestDev(t)
	h, err := d.Open()
	require.NoError(t, err)
	defer h.Close()

	assert.NoError(t, h.EnableClock())
	assert.NoError(t, h.DisableClock())
	assert.False(t, d.State().ClockOn)
}

func TestClockEnableFailure(t *testing.T) {
	rec := &recorder{}
	clocks, _, sclk := newFakeClocks(rec)
	sclk.enableErr = errFake
	d := newSecureDev(t, rec, func(cfg *Config) {
		cfg.Clocks = clocks
	})
	rec.take()

	// a clock failure is logged, the rail still comes up
	require.NoError(t, d.setPower(true))
	assert.Equal(t, []string{
		fmt.Sprintf("sclk rate %s", DefaultSpeed),
		"pclk enable",
		"sclk enable",
		"pclk disable",
		"get pvdd",
		"pvdd enable",
	}, rec.take())
	assert.False(t, d.State().ClockOn)
}

package ese

import (
	"testing"

	"github.com/northvolt/go-ese/ese/eseconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

func registerBoardPins(t *testing.T) (*gpiotest.Pin, *gpiotest.Pin) {
	t.Helper()
	pvdd := &gpiotest.Pin{N: "ESE_TEST_PVDD", Num: -1}
	gate := &gpiotest.Pin{N: "ESE_TEST_GATE", Num: -1}
	require.NoError(t, gpioreg.Register(pvdd))
	require.NoError(t, gpioreg.Register(gate))
	require.NoError(t, spireg.Register("ESE_TEST_SPI", nil, -1, func() (spi.PortCloser, error) {
		return newPlayback(), nil
	}))
	t.Cleanup(func() {
		assert.NoError(t, gpioreg.Unregister(pvdd.N))
		assert.NoError(t, gpioreg.Unregister(gate.N))
		assert.NoError(t, spireg.Unregister("ESE_TEST_SPI"))
	})
	return pvdd, gate
}

func TestConfigFromBoardGPIO(t *testing.T) {
	pvdd, _ := registerBoardPins(t)

	b := eseconf.DefaultBoard()
	b.PVDDGPIO = pvdd.N
	b.SPIPort = "ESE_TEST_SPI"
	b.APVendor = eseconf.VendorQualcomm
	b.MaxSpeedHz = 4000000

	cfg, err := ConfigFromBoard(*b)
	require.NoError(t, err)
	assert.Equal(t, pvdd, cfg.PowerPin)
	assert.NotNil(t, cfg.Port)
	assert.Equal(t, eseconf.VendorQualcomm, cfg.Vendor)
	assert.Equal(t, 4*physic.MegaHertz, cfg.Speed)
	assert.Equal(t, qualcommWordSize, cfg.WordSize)
	assert.Equal(t, DefaultDelays(), cfg.Delays)
	assert.Nil(t, cfg.WakeLock)
	require.NoError(t, cfg.Port.(spi.PortCloser).Close())

	b.WordSize = 8
	cfg, err = ConfigFromBoard(*b)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WordSize)
	require.NoError(t, cfg.Port.(spi.PortCloser).Close())
}

func TestConfigFromBoardSecure(t *testing.T) {
	_, gate := registerBoardPins(t)

	b := eseconf.Board{
		Compatible:    eseconf.Compatible,
		LDOControl:    true,
		PVDDRegulator: "ese-pvdd",
		APVendor:      eseconf.VendorSLSI,
		SecureClock:   true,
		Clocks: []eseconf.Clock{
			{Name: "pclk", SourceHz: 100000000, MaxDivider: 1},
			{Name: "sclk", SourceHz: 19200000, MaxDivider: 256, GateGPIO: gate.N},
		},
		WakeLock: "ese_wake_lock",
	}
	cfg, err := ConfigFromBoard(b)
	require.NoError(t, err)
	assert.Nil(t, cfg.Port)
	assert.Equal(t, "ese-pvdd", cfg.Regulator)
	assert.Equal(t, SysfsRegulators{}, cfg.Regulators)
	assert.Equal(t, SysfsWakeLock{Name: "ese_wake_lock"}, cfg.WakeLock)
	assert.Equal(t, DefaultSpeed, cfg.Speed)
	assert.Zero(t, cfg.WordSize)

	clk, err := cfg.Clocks.Clock("sclk")
	require.NoError(t, err)
	sclk := clk.(*DividerClock)
	assert.Equal(t, 19200*physic.KiloHertz, sclk.Source)
	assert.Equal(t, gate, sclk.Gate)
	_, err = cfg.Clocks.Clock("pclk")
	require.NoError(t, err)
}

func TestConfigFromBoardErrors(t *testing.T) {
	b := eseconf.DefaultBoard()
	b.PVDDGPIO = "ESE_TEST_MISSING"
	_, err := ConfigFromBoard(*b)
	assert.ErrorIs(t, err, ErrNoPowerBackend)

	b = eseconf.DefaultBoard()
	b.Compatible = "other"
	_, err = ConfigFromBoard(*b)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewBoardDev(t *testing.T) {
	pvdd, _ := registerBoardPins(t)

	b := eseconf.DefaultBoard()
	b.PVDDGPIO = pvdd.N
	b.SPIPort = "ESE_TEST_SPI"
	d, err := NewBoardDev(*b, nil)
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

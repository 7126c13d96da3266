package ese

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

func TestNewInvalidConfig(t *testing.T) {
	rec := &recorder{}
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"no rail", Config{Port: newPlayback()}, ErrNoPowerBackend},
		{"both rails", Config{Port: newPlayback(), PowerPin: newPin(), Regulator: "pvdd", Regulators: &fakeRegulators{rec: rec}}, ErrInvalidConfig},
		{"no regulator provider", Config{Port: newPlayback(), Regulator: "pvdd"}, ErrNoPowerBackend},
		{"no bus", Config{PowerPin: newPin()}, ErrInvalidConfig},
		{"no clocks", Config{PowerPin: newPin(), SecureClock: true}, ErrClockUnavailable},
		{"negative speed", Config{Port: newPlayback(), PowerPin: newPin(), Speed: -physic.Hertz}, ErrInvalidConfig},
		{"vendor", Config{Port: newPlayback(), PowerPin: newPin(), Vendor: 7}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	pin := newPin()
	d, err := New(Config{Port: newPlayback(), PowerPin: pin})
	require.NoError(t, err)
	defer d.Close()

	s := d.State()
	assert.Equal(t, DefaultSpeed, s.Rate)
	assert.Equal(t, DebugOff, s.DebugLevel)
	assert.False(t, s.Open)
	assert.False(t, s.Powered)
	assert.Equal(t, gpio.Low, pin.Read(), "rail not driven low at attach")
}

func TestNewRegulatorMissing(t *testing.T) {
	rec := &recorder{}
	cfg := ConfigP3_RegulatorDefault(newPlayback(), "pvdd", &fakeRegulators{rec: rec, getErr: errFake})
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrNoPowerBackend)
}

func TestNewUnwind(t *testing.T) {
	rec := &recorder{}
	clocks, _, _ := newFakeClocks(rec)
	delete(clocks, "sclk")
	port := newPlayback()

	cfg := ConfigP3_RegulatorDefault(port, "pvdd", &fakeRegulators{rec: rec})
	cfg.SecureClock = true
	cfg.Clocks = clocks
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrClockUnavailable)
	assert.Equal(t, []string{
		"get pvdd",
		"pvdd put",
		"pclk put",
	}, rec.take())
	assert.True(t, port.Initialized, "port was not connected")
}

func TestNewWordSize(t *testing.T) {
	for _, size := range []int{-1, MaxFrameSize + 1} {
		rec := &recorder{}
		port := newPlayback()
		cfg := ConfigP3_RegulatorDefault(port, "pvdd", &fakeRegulators{rec: rec})
		cfg.WordSize = size
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig, "word size %d", size)
		assert.Empty(t, rec.take(), "word size %d", size)
		assert.False(t, port.Initialized, "word size %d", size)
	}

	cfg := ConfigP3_GPIODefault(newPlayback(), newPin())
	cfg.WordSize = MaxFrameSize
	d, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, d.Close())
}

func TestCloseDetach(t *testing.T) {
	rec := &recorder{}
	clocks, _, _ := newFakeClocks(rec)
	cfg := ConfigP3_RegulatorDefault(nil, "pvdd", &fakeRegulators{rec: rec})
	cfg.SecureClock = true
	cfg.Clocks = clocks
	cfg.WakeLock = fakeWakeLock{rec}
	cfg.Delays = Delays{}
	d, err := New(cfg)
	require.NoError(t, err)

	_, err = d.Open()
	require.NoError(t, err)
	rec.take()

	require.NoError(t, d.Close())
	assert.Equal(t, []string{
		"pvdd disable",
		"pvdd put",
		"sclk disable",
		"pclk disable",
		"wake unlock",
		"sclk put",
		"pclk put",
	}, rec.take())
	assert.False(t, d.State().Open)

	require.NoError(t, d.Close())
	assert.Empty(t, rec.take())
}

type closingBus struct {
	closed int
}

func (b *closingBus) Tx(w, r []byte) error {
	return nil
}

func (b *closingBus) Close() error {
	b.closed++
	return nil
}

func TestCloseClosesBus(t *testing.T) {
	bus := &closingBus{}
	cfg := ConfigP3_GPIODefault(nil, newPin())
	cfg.Bus = bus
	d, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.Equal(t, 1, bus.closed)

	// a failed attach leaves the bus to the caller
	bus = &closingBus{}
	cfg = ConfigP3_GPIODefault(nil, newPin())
	cfg.Bus = bus
	cfg.SecureClock = true
	cfg.Clocks = Clocks{}
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrClockUnavailable)
	assert.Zero(t, bus.closed)
}

func TestStateString(t *testing.T) {
	s := State{Open: true, Users: 2, Powered: true, Rate: DefaultSpeed, DebugLevel: DebugFull}
	assert.Equal(t, "open=true users=2 powered=true clock=false rate=8MHz vendor=default secure=false debug=full", s.String())
}

package ese

import (
	"encoding/hex"
	"strings"
)

// Logger is the interface used for debug messages.
//
// Some messages will be multiple lines.
type Logger interface {
	Printf(format string, args ...interface{})
}

type nullLoggerImpl struct{}

func (nullLoggerImpl) Printf(format string, args ...interface{}) {}

// nullLogger is a logger that does nothing.
var nullLogger = nullLoggerImpl{}

// getLogger always returns a logger.
func getLogger(cfg Config) Logger {
	if cfg.Debug == nil {
		return nullLogger
	} else {
		return cfg.Debug
	}
}

// DebugLevel controls how chatty the driver is.
type DebugLevel uint8

const (
	// DebugOff only reports errors and state changes.
	DebugOff DebugLevel = iota
	// DebugFull also traces every transfer.
	DebugFull
)

func (l DebugLevel) String() string {
	switch l {
	case DebugOff:
		return "off"
	case DebugFull:
		return "full"
	default:
		return "unknown"
	}
}

// hexDump lazily formats binary data, matching `hexdump -C`.
//
// hexDump implements fmt.Stringer interface, allowing it to lazily dump binary
// data as hex when needed. The format of the dump matches the output of
// `hexdump -C` on the command line.
type hexDump []byte

func (h hexDump) String() string {
	var buf strings.Builder
	buf.WriteByte('\n')
	d := hex.Dumper(&buf)
	_, _ = d.Write([]byte(h))
	_ = d.Close()
	buf.WriteByte('\n')
	return buf.String()
}

// debugf logs only at DebugFull.
func (d *Dev) debugf(format string, args ...interface{}) {
	switch DebugLevel(d.debugLevel.Load()) {
	case DebugOff:
	case DebugFull:
		d.log.Printf("ese: "+format, args...)
	default:
		d.log.Printf("ese: debug level %d", d.debugLevel.Load())
	}
}

func (d *Dev) infof(format string, args ...interface{}) {
	d.log.Printf("ese: "+format, args...)
}

// debugLogger forwards to the device logger while the debug level is full.
type debugLogger struct {
	d *Dev
}

func (l debugLogger) Printf(format string, args ...interface{}) {
	if DebugLevel(l.d.debugLevel.Load()) == DebugFull {
		l.d.log.Printf(format, args...)
	}
}

package ese

import (
	"fmt"
)

// Command is an ioctl style control command number.
//
// The layout matches Linux ioctl numbers: bits 0-7 hold the command number,
// bits 8-15 the type, bits 16-29 the argument size and bits 30-31 the
// direction.
type Command uint32

// Magic is the type of every command of this driver.
const Magic = 0xED

// Command directions, seen from the caller.
const (
	DirNone  = 0
	DirWrite = 1
	DirRead  = 2
)

const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14
	iocDirBits  = 2

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

// argument sizes of the legacy C structures
const (
	sizeofLong     = 8
	sizeofTransfer = 24
)

// NewCommand builds a command number. dir is a combination of DirWrite and
// DirRead.
func NewCommand(dir, typ, nr, size uint32) Command {
	return Command(dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

// Commands. Only CmdSetDebugLevel, the clock commands and CmdRawTransfer do
// anything; the others are accepted for compatibility.
const (
	CmdSetPower       = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 1<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdSetDebugLevel  = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 2<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdSetPoll        = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 3<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdSetClockRate   = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 4<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdEnableCS       = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 5<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdDisableCS      = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 6<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdEnableClock    = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 7<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdDisableClock   = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 8<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdEnableClockCS  = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 9<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdDisableClockCS = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 10<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdSwingCS        = Command(DirWrite<<iocDirShift | Magic<<iocTypeShift | 11<<iocNRShift | sizeofLong<<iocSizeShift)
	CmdRawTransfer    = Command((DirRead|DirWrite)<<iocDirShift | Magic<<iocTypeShift | 15<<iocNRShift | sizeofTransfer<<iocSizeShift)
)

var commandNames = map[Command]string{
	CmdSetPower:       "SET_POWER",
	CmdSetDebugLevel:  "SET_DEBUG_LEVEL",
	CmdSetPoll:        "SET_POLL",
	CmdSetClockRate:   "SET_CLOCK_RATE",
	CmdEnableCS:       "ENABLE_CS",
	CmdDisableCS:      "DISABLE_CS",
	CmdEnableClock:    "ENABLE_CLOCK",
	CmdDisableClock:   "DISABLE_CLOCK",
	CmdEnableClockCS:  "ENABLE_CLOCK_CS",
	CmdDisableClockCS: "DISABLE_CLOCK_CS",
	CmdSwingCS:        "SWING_CS",
	CmdRawTransfer:    "RAW_TRANSFER",
}

// Type returns the magic of the command.
func (c Command) Type() uint8 {
	return uint8(c >> iocTypeShift)
}

// Nr returns the command number.
func (c Command) Nr() uint8 {
	return uint8(c >> iocNRShift)
}

// Size returns the argument size encoded in the command.
func (c Command) Size() int {
	return int(c>>iocSizeShift) & (1<<iocSizeBits - 1)
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%#08x)", uint32(c))
}

// Ioctl runs a control command. arg is the command argument and receives
// the result of CmdRawTransfer.
func (h *Handle) Ioctl(cmd Command, arg []byte) error {
	d, err := h.dev()
	if err != nil {
		return err
	}
	if cmd.Type() != Magic {
		d.infof("%s: type %#02x, want %#02x", cmd, cmd.Type(), Magic)
		return fmt.Errorf("%w: %#02x", ErrInvalidMagic, cmd.Type())
	}

	d.bufMu.Lock()
	defer d.bufMu.Unlock()
	if d.buf == nil {
		return ErrClosed
	}

	switch cmd {
	case CmdSetDebugLevel:
		if len(arg) < 1 {
			return fmt.Errorf("%w: %s needs a level", ErrInvalidArgument, cmd)
		}
		d.debugLevel.Store(uint32(arg[0]))
		d.infof("debug level %s", DebugLevel(arg[0]))
		return nil

	case CmdEnableClock:
		return d.clockControl(true)
	case CmdDisableClock:
		return d.clockControl(false)

	case CmdRawTransfer:
		if d.cfg.SecureClock || d.cfg.DisableRawTransfer {
			return fmt.Errorf("%w: %s disabled", ErrUnrecognized, cmd)
		}
		return d.rawTransfer(arg)

	case CmdSetPower, CmdSetPoll, CmdSetClockRate,
		CmdEnableCS, CmdDisableCS, CmdEnableClockCS, CmdDisableClockCS, CmdSwingCS:
		d.debugf("%s: deprecated, ignored", cmd)
		return nil

	default:
		d.infof("%s: unrecognized", cmd)
		return fmt.Errorf("%w: nr %d", ErrUnrecognized, cmd.Nr())
	}
}

// SetDebugLevel stores the debug level of the device.
func (h *Handle) SetDebugLevel(l DebugLevel) error {
	return h.Ioctl(CmdSetDebugLevel, []byte{byte(l)})
}

// EnableClock turns on the clocks the driver owns.
func (h *Handle) EnableClock() error {
	return h.Ioctl(CmdEnableClock, nil)
}

// DisableClock turns off the clocks the driver owns.
func (h *Handle) DisableClock() error {
	return h.Ioctl(CmdDisableClock, nil)
}

// RawTransfer runs one full duplex transaction of t.Len bytes. Received
// bytes are stored in t.Rx when it is set.
func (h *Handle) RawTransfer(t *TransferRecord) error {
	arg, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	if err := h.Ioctl(CmdRawTransfer, arg); err != nil {
		return err
	}
	return t.UnmarshalBinary(arg)
}

package ese

import (
	"errors"
	"fmt"
)

// Driver errors.
var (
	// ErrAlreadyOpen is returned when the element is held by another user.
	ErrAlreadyOpen = errors.New("ese: already open")

	// ErrNoPowerBackend is returned when no rail is configured or the rail
	// could not be acquired.
	ErrNoPowerBackend = errors.New("ese: no power backend")

	// ErrClockUnavailable is returned at attach when the driver owns the
	// clocks but could not get them.
	ErrClockUnavailable = errors.New("ese: clock unavailable")

	// ErrTransfer is returned when the bus transaction failed.
	//
	// Nothing of a failed transfer is returned and the driver never retries.
	ErrTransfer = errors.New("ese: transfer failed")

	// ErrInvalidMagic is returned for commands of another driver.
	ErrInvalidMagic = errors.New("ese: invalid command magic")

	// ErrInvalidArgument is returned for malformed command arguments.
	ErrInvalidArgument = errors.New("ese: invalid argument")

	// ErrUnrecognized is returned for unknown commands. It is also an
	// ErrInvalidArgument.
	ErrUnrecognized = fmt.Errorf("ese: unrecognized command: %w", ErrInvalidArgument)

	// ErrAllocation is returned when the transfer buffers can't be set up.
	ErrAllocation = errors.New("ese: allocation failure")

	// ErrUnsatisfiable is returned when a clock can't go as low as requested.
	ErrUnsatisfiable = errors.New("ese: clock rate unsatisfiable")

	ErrInvalidConfig = errors.New("ese: invalid config")

	// ErrClosed is returned when using a closed handle or device.
	ErrClosed = errors.New("ese: closed")

	// ErrNotSupported is returned for I/O on a device without a bus.
	ErrNotSupported = errors.New("ese: not supported")
)

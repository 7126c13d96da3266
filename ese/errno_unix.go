//go:build unix

package ese

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errnos = []struct {
	err   error
	errno unix.Errno
}{
	{ErrAlreadyOpen, unix.EBUSY},
	{ErrNoPowerBackend, unix.ENODEV},
	{ErrClockUnavailable, unix.EPERM},
	{ErrTransfer, unix.EIO},
	{ErrInvalidMagic, unix.ENOTTY},
	{ErrAllocation, unix.ENOMEM},
	{ErrUnsatisfiable, unix.ERANGE},
	{ErrClosed, unix.EBADF},
	{ErrNotSupported, unix.EOPNOTSUPP},
	{ErrInvalidConfig, unix.EINVAL},
	{ErrInvalidArgument, unix.EINVAL},
}

// Errno returns the errno a character device would fail with for err, or 0
// for a nil err. Other errors keep a wrapped errno or map to EIO.
func Errno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	for _, e := range errnos {
		if errors.Is(err, e.err) {
			return e.errno
		}
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}

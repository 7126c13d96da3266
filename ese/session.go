package ese

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
)

// Handle is one reference to an open session.
//
// The element stays powered until every handle of the session is closed.
type Handle struct {
	d      *Dev
	closed atomic.Bool
}

// Open starts a session and powers the element up.
//
// Only one session exists at a time. While it is open, Open returns
// ErrAlreadyOpen; use Dup to share the session instead.
func (d *Dev) Open() (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if d.opened {
		d.debugf("open: already open by %d users", d.users)
		return nil, ErrAlreadyOpen
	}

	d.opened = true
	d.users = 1
	if d.cfg.WakeLock != nil {
		if err := d.cfg.WakeLock.Acquire(); err != nil {
			d.infof("wake lock: %v", err)
		}
	}
	if err := d.setPower(true); err != nil {
		d.opened = false
		d.users = 0
		if werr := d.releaseWakeLock(); werr != nil {
			d.infof("wake lock: %v", werr)
		}
		return nil, fmt.Errorf("ese: power up: %w", err)
	}
	sleep(d.cfg.Delays.Open)
	d.debugf("opened")
	return &Handle{d: d}, nil
}

func (d *Dev) releaseWakeLock() error {
	if d.cfg.WakeLock == nil {
		return nil
	}
	return d.cfg.WakeLock.Release()
}

// Dup returns another handle to the session of h.
func (h *Handle) Dup() (*Handle, error) {
	d := h.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if h.closed.Load() || !d.opened {
		return nil, ErrClosed
	}
	d.users++
	return &Handle{d: d}, nil
}

// Close releases the handle. The last handle of a session powers the
// element down. Closing a handle twice does nothing.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	h.d.closeSession()
	return nil
}

func (d *Dev) closeSession() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return
	}
	d.users--
	if d.users > 0 {
		d.debugf("close: %d users left", d.users)
		return
	}

	d.opened = false
	d.users = 0
	err := d.setPower(false)
	sleep(d.cfg.Delays.Close)
	err = multierr.Append(err, d.releaseWakeLock())
	if err != nil {
		d.infof("close: %v", err)
	}
	d.debugf("closed")
}

// dev returns the device of an usable handle.
func (h *Handle) dev() (*Dev, error) {
	if h.closed.Load() || h.d.closed.Load() {
		return nil, ErrClosed
	}
	return h.d, nil
}

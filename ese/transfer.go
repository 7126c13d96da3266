package ese

import (
	"fmt"
)

// Write sends one frame of up to MaxFrameSize bytes to the element. The
// returned count excludes any padding.
//
// Longer input is truncated to one frame and the short count is returned
// with a nil error. This departs from io.Writer, so io.Copy into a Handle
// fails with io.ErrShortWrite; send one frame per call instead.
func (h *Handle) Write(p []byte) (int, error) {
	d, err := h.dev()
	if err != nil {
		return 0, err
	}
	return d.write(p)
}

// Read receives one frame of up to MaxFrameSize bytes from the element.
//
// A failed transfer returns no data.
func (h *Handle) Read(p []byte) (int, error) {
	d, err := h.dev()
	if err != nil {
		return 0, err
	}
	return d.read(p)
}

func (d *Dev) write(p []byte) (int, error) {
	d.bufMu.Lock()
	defer d.bufMu.Unlock()
	if d.buf == nil {
		return 0, ErrClosed
	}
	if d.bus == nil {
		return 0, ErrNotSupported
	}

	n := min(len(p), MaxFrameSize)
	copy(d.buf, p[:n])
	size := padLen(n, d.cfg.WordSize)
	clear(d.buf[n:size])

	d.debugf("write %d bytes (%d on the bus), rail %s", n, size, d.railLevel())
	if err := d.bus.Tx(d.buf[:size], nil); err != nil {
		d.infof("write %d bytes: %v", n, err)
		return 0, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return n, nil
}

func (d *Dev) read(p []byte) (int, error) {
	d.bufMu.Lock()
	defer d.bufMu.Unlock()
	if d.buf == nil {
		return 0, ErrClosed
	}
	if d.bus == nil {
		return 0, ErrNotSupported
	}

	n := min(len(p), MaxFrameSize)
	d.debugf("read %d bytes, rail %s", n, d.railLevel())
	if err := d.bus.Tx(nil, d.buf[:n]); err != nil {
		d.infof("read %d bytes: %v", n, err)
		return 0, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return copy(p, d.buf[:n]), nil
}

// padLen returns the length n is sent with. Frames are padded to whole
// words of wordSize bytes as long as the padded frame fits the buffer.
func padLen(n, wordSize int) int {
	if wordSize <= 0 || n%wordSize == 0 {
		return n
	}
	padded := n + wordSize - n%wordSize
	if padded > MaxFrameSize {
		return n
	}
	return padded
}

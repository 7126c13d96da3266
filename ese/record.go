package ese

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// TransferRecord is the argument of CmdRawTransfer.
//
// Encoded, it is a big endian uint16 length, a flags byte and then the
// transmit and receive areas of length bytes each, when present.
type TransferRecord struct {
	// Len is the number of bytes clocked in each direction.
	Len int
	// Tx is sent on the bus. Zeros are sent when Tx is nil.
	Tx []byte
	// Rx receives the bytes read. Nothing is kept when Rx is nil.
	Rx []byte
}

const (
	recordTx = 1 << 0
	recordRx = 1 << 1
)

func (t *TransferRecord) MarshalBinary() ([]byte, error) {
	if t.Len < 0 || t.Len > 0xffff {
		return nil, fmt.Errorf("%w: transfer length %d", ErrInvalidArgument, t.Len)
	}
	var flags uint8
	if t.Tx != nil {
		if len(t.Tx) != t.Len {
			return nil, fmt.Errorf("%w: tx is %d bytes, want %d", ErrInvalidArgument, len(t.Tx), t.Len)
		}
		flags |= recordTx
	}
	if t.Rx != nil {
		if len(t.Rx) != t.Len {
			return nil, fmt.Errorf("%w: rx is %d bytes, want %d", ErrInvalidArgument, len(t.Rx), t.Len)
		}
		flags |= recordRx
	}

	var b cryptobyte.Builder
	b.AddUint16(uint16(t.Len))
	b.AddUint8(flags)
	if t.Tx != nil {
		b.AddBytes(t.Tx)
	}
	if t.Rx != nil {
		b.AddBytes(t.Rx)
	}
	return b.Bytes()
}

// UnmarshalBinary decodes b into t. The receive area is copied into t.Rx
// when it has the right size.
func (t *TransferRecord) UnmarshalBinary(b []byte) error {
	n, tx, rx, err := parseRecord(b)
	if err != nil {
		return err
	}
	t.Len = n
	t.Tx = nil
	if tx != nil {
		t.Tx = append([]byte(nil), tx...)
	}
	switch {
	case rx == nil:
		t.Rx = nil
	case len(t.Rx) == n:
		copy(t.Rx, rx)
	default:
		t.Rx = append([]byte(nil), rx...)
	}
	return nil
}

// parseRecord splits an encoded record. tx and rx alias b.
func parseRecord(b []byte) (n int, tx, rx []byte, err error) {
	s := cryptobyte.String(b)
	var (
		length uint16
		flags  uint8
	)
	if !s.ReadUint16(&length) || !s.ReadUint8(&flags) {
		return 0, nil, nil, fmt.Errorf("%w: short transfer record", ErrInvalidArgument)
	}
	if flags&^(recordTx|recordRx) != 0 {
		return 0, nil, nil, fmt.Errorf("%w: transfer flags %#02x", ErrInvalidArgument, flags)
	}
	if flags&recordTx != 0 && !s.ReadBytes(&tx, int(length)) {
		return 0, nil, nil, fmt.Errorf("%w: short tx area", ErrInvalidArgument)
	}
	if flags&recordRx != 0 && !s.ReadBytes(&rx, int(length)) {
		return 0, nil, nil, fmt.Errorf("%w: short rx area", ErrInvalidArgument)
	}
	if !s.Empty() {
		return 0, nil, nil, fmt.Errorf("%w: trailing data in transfer record", ErrInvalidArgument)
	}
	return int(length), tx, rx, nil
}

// rawTransfer runs the transaction described by the encoded record arg and
// stores the received bytes in its receive area. Must hold bufMu.
func (d *Dev) rawTransfer(arg []byte) error {
	if d.bus == nil {
		return ErrNotSupported
	}
	n, tx, rx, err := parseRecord(arg)
	if err != nil {
		return err
	}
	if n == 0 || n > MaxFrameSize {
		return fmt.Errorf("%w: transfer length %d", ErrInvalidArgument, n)
	}

	w := d.buf[:n]
	if tx != nil {
		copy(w, tx)
	} else {
		clear(w)
	}
	r := d.rxBuf[:n]
	d.debugf("raw transfer %d bytes", n)
	if err := d.bus.Tx(w, r); err != nil {
		d.infof("raw transfer %d bytes: %v", n, err)
		return fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	copy(rx, r)
	return nil
}

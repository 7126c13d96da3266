package ese

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferRecordMarshal(t *testing.T) {
	tests := []struct {
		name string
		rec  TransferRecord
		want []byte
	}{
		{"both", TransferRecord{Len: 2, Tx: []byte{0xaa, 0xbb}, Rx: []byte{0, 0}}, []byte{0x00, 0x02, 0x03, 0xaa, 0xbb, 0x00, 0x00}},
		{"tx", TransferRecord{Len: 1, Tx: []byte{0xaa}}, []byte{0x00, 0x01, 0x01, 0xaa}},
		{"rx", TransferRecord{Len: 1, Rx: []byte{0x00}}, []byte{0x00, 0x01, 0x02, 0x00}},
		{"none", TransferRecord{Len: 0x0103}, []byte{0x01, 0x03, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rec.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransferRecordMarshalInvalid(t *testing.T) {
	for _, rec := range []TransferRecord{
		{Len: -1},
		{Len: 0x10000},
		{Len: 2, Tx: []byte{1}},
		{Len: 1, Rx: []byte{1, 2}},
	} {
		_, err := rec.MarshalBinary()
		assert.ErrorIs(t, err, ErrInvalidArgument, "%+v", rec)
	}
}

func TestTransferRecordUnmarshal(t *testing.T) {
	rx := make([]byte, 2)
	rec := TransferRecord{Rx: rx}
	require.NoError(t, rec.UnmarshalBinary([]byte{0x00, 0x02, 0x03, 0x01, 0x02, 0x03, 0x04}))
	assert.Equal(t, 2, rec.Len)
	assert.Equal(t, []byte{0x01, 0x02}, rec.Tx)
	assert.Equal(t, []byte{0x03, 0x04}, rx, "rx not filled in place")
}

func TestParseRecordInvalid(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"short header", []byte{0x00, 0x01}},
		{"flags", []byte{0x00, 0x01, 0x04}},
		{"short tx", []byte{0x00, 0x02, 0x01, 0xaa}},
		{"short rx", []byte{0x00, 0x01, 0x03, 0xaa}},
		{"trailing", []byte{0x00, 0x01, 0x01, 0xaa, 0xbb}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := parseRecord(tt.in)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

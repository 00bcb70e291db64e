package l1c

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecordHeader(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		raw := []byte{
			0x08, 0x08, 0x02, 0x05, // MDR, IASI, subclass 2, version 5
			0x00, 0x26, 0x6b, 0x4c, // size
			0x1f, 0x40, 0x00, 0x00, 0x03, 0xe8, // day 8000, 1000 ms
			0x1f, 0x40, 0x00, 0x00, 0x07, 0xd0, // day 8000, 2000 ms
		}
		hdr, err := ReadRecordHeader(bytes.NewReader(raw))
		require.NoError(t, err)

		assert.Equal(t, ClassMDR, hdr.RecordClass)
		assert.Equal(t, uint8(8), hdr.InstrumentGroup)
		assert.Equal(t, uint8(2), hdr.RecordSubclass)
		assert.Equal(t, uint8(5), hdr.RecordSubclassVersion)
		assert.Equal(t, uint32(0x266b4c), hdr.RecordSize)
		assert.Equal(t, int(0x266b4c)-RecordHeaderLength, hdr.ContentSize())
		assert.Equal(t, time.Date(2021, time.November, 26, 0, 0, 1, 0, time.UTC), hdr.RecordStartTime.Time())

		out, err := hdr.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadRecordHeader(bytes.NewReader(make([]byte, 19)))
		assert.ErrorIs(t, err, ErrTruncatedInput)

		_, err = ReadRecordHeader(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrTruncatedInput)
	})

	t.Run("unknown class", func(t *testing.T) {
		raw := make([]byte, RecordHeaderLength)
		raw[0] = 9
		raw[7] = RecordHeaderLength
		_, err := ReadRecordHeader(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrUnknownRecordClass)

		var classErr *UnknownRecordClassError
		require.ErrorAs(t, err, &classErr)
		assert.Equal(t, uint8(9), classErr.Class)
	})

	t.Run("size smaller than header", func(t *testing.T) {
		raw := make([]byte, RecordHeaderLength)
		raw[0] = uint8(ClassMPHR)
		raw[7] = 19
		_, err := ReadRecordHeader(bytes.NewReader(raw))
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}

func TestRecordClassString(t *testing.T) {
	assert.Equal(t, "MPHR", ClassMPHR.String())
	assert.Equal(t, "MDR", ClassMDR.String())
	assert.Equal(t, "RecordClass(0)", RecordClass(0).String())
	assert.True(t, ClassVIADR.Valid())
	assert.False(t, RecordClass(9).Valid())
}

func TestShortCDSTime(t *testing.T) {
	assert.Equal(t, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), ShortCDSTime{}.Time())
	assert.Equal(t, time.Date(2000, time.January, 2, 0, 0, 1, 500e6, time.UTC), ShortCDSTime{Day: 1, Msec: 1500}.Time())
}

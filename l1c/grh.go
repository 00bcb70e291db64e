package l1c

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ReadRecordHeader reads the 20 byte GRH from r.
func ReadRecordHeader(r io.Reader) (RecordHeader, error) {
	raw := make([]byte, RecordHeaderLength)
	if n, err := io.ReadFull(r, raw); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return RecordHeader{}, fmt.Errorf("%w: GRH needs %d bytes, got %d", ErrTruncatedInput, RecordHeaderLength, n)
		}
		return RecordHeader{}, err
	}
	return ParseRecordHeader(raw)
}

// ParseRecordHeader decodes a GRH from the first 20 bytes of raw.
func ParseRecordHeader(raw []byte) (RecordHeader, error) {
	if len(raw) < RecordHeaderLength {
		return RecordHeader{}, fmt.Errorf("%w: GRH needs %d bytes, got %d", ErrTruncatedInput, RecordHeaderLength, len(raw))
	}

	h := RecordHeader{}
	if err := binary.Read(bytes.NewReader(raw[:RecordHeaderLength]), binary.BigEndian, &h); err != nil {
		return RecordHeader{}, err
	}

	if !h.RecordClass.Valid() {
		return RecordHeader{}, &UnknownRecordClassError{Class: uint8(h.RecordClass)}
	}
	if h.RecordSize < RecordHeaderLength {
		return RecordHeader{}, fmt.Errorf("%w: %s declares %d bytes, smaller than its GRH", ErrSizeMismatch, h.RecordClass, h.RecordSize)
	}
	return h, nil
}

// MarshalBinary re-encodes the GRH, bit for bit identical to what was read.
func (h RecordHeader) MarshalBinary() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, RecordHeaderLength))
	if err := binary.Write(buf, binary.BigEndian, h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

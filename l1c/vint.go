package l1c

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VInt4Length is the wire size of a VInt4
const VInt4Length = 5

// VInt4 is the EPS packed decimal: a signed power-of-ten exponent followed by
// a 4 byte mantissa (GPFS 4.2). It is laid out so encoding/binary can read it
// in place inside the larger record structs.
type VInt4 struct {
	Exponent int8
	Mantissa uint32
}

// Float64 returns mantissa / 10^exponent with the mantissa read as two's complement.
func (v VInt4) Float64() float64 {
	return float64(int32(v.Mantissa)) / math.Pow10(int(v.Exponent))
}

// DecodeVInt4 decodes a single 5 byte group.
func DecodeVInt4(b []byte) (float64, error) {
	if len(b) != VInt4Length {
		return 0, fmt.Errorf("%w: %d bytes, want %d", ErrLength, len(b), VInt4Length)
	}
	return decodeVInt4(b), nil
}

// DecodeVInt4s decodes len(b)/5 consecutive groups, preserving order.
func DecodeVInt4s(b []byte) ([]float64, error) {
	if len(b) == 0 || len(b)%VInt4Length != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a positive multiple of %d", ErrLength, len(b), VInt4Length)
	}
	out := make([]float64, len(b)/VInt4Length)
	for i := range out {
		out[i] = decodeVInt4(b[i*VInt4Length:])
	}
	return out, nil
}

// EncodeVInt4 packs value / 10^exponent into its 5 byte wire form.
func EncodeVInt4(exponent int8, value int32) []byte {
	b := make([]byte, VInt4Length)
	b[0] = byte(exponent)
	binary.BigEndian.PutUint32(b[1:], uint32(value))
	return b
}

func decodeVInt4(b []byte) float64 {
	return VInt4{
		Exponent: int8(b[0]),
		Mantissa: binary.BigEndian.Uint32(b[1:VInt4Length]),
	}.Float64()
}

// the helpers below flatten fixed VInt4 arrays into float arrays

func vint4s(dst []float64, src []VInt4) {
	for i, v := range src {
		dst[i] = v.Float64()
	}
}

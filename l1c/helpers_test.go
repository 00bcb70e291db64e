package l1c

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeRecord prefixes content with a GRH whose size covers both.
func encodeRecord(t *testing.T, class RecordClass, subclass, version uint8, content []byte) []byte {
	t.Helper()
	hdr := RecordHeader{
		RecordClass:           class,
		RecordSubclass:        subclass,
		RecordSubclassVersion: version,
		RecordSize:            uint32(RecordHeaderLength + len(content)),
		RecordStartTime:       ShortCDSTime{Day: 8000, Msec: 1000},
		RecordStopTime:        ShortCDSTime{Day: 8000, Msec: 2000},
	}
	grh, err := hdr.MarshalBinary()
	require.NoError(t, err)
	return append(grh, content...)
}

// mphrContent renders every MPHR line as "0" unless overridden by key.
func mphrContent(overrides map[string]string) []byte {
	var sb strings.Builder
	for _, name := range mphrFieldNames {
		value, ok := overrides[name]
		if !ok {
			value = "0"
		}
		fmt.Fprintf(&sb, "%-30s= %s\n", name, value)
	}
	return []byte(sb.String())
}

func encodeBE(t *testing.T, values ...interface{}) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	for _, v := range values {
		require.NoError(t, binary.Write(buf, binary.BigEndian, v))
	}
	return buf.Bytes()
}

// uniformScaleFactors puts channels 0..SS in a single band divided by 10^exp.
func uniformScaleFactors(exp int16) GIADRScaleFactors {
	sf := GIADRScaleFactors{IDefScaleSondNbScale: 1}
	sf.IDefScaleSondNsfirst[0] = 0
	sf.IDefScaleSondNslast[0] = SS
	sf.IDefScaleSondScaleFactor[0] = exp
	return sf
}

// mdrFixture holds every layout of a synthetic MDR.
type mdrFixture struct {
	geo            mdrGeolocationLayout
	irc            []uint16
	flagsV4        mdrFlagsV4Layout
	flagsV5        mdrFlagsV5Layout
	quality        mdrQualityLayout
	spectrum       []int16
	analysis       mdrAnalysisLayout
	classified     []uint8
	classification mdrClassificationLayout
	tail           mdrTailV5Layout
}

func newMDRFixture(first, last int32) *mdrFixture {
	f := &mdrFixture{
		irc:        make([]uint16, ircImageSamples),
		spectrum:   make([]int16, spectrumSamples),
		classified: make([]uint8, classifiedSamples),
	}
	f.quality.IDefNsFirst1b = first
	f.quality.IDefNsLast1b = last
	f.quality.IDefSpectDWn1b = VInt4{Exponent: 0, Mantissa: 25}
	for s := 0; s < SNOT; s++ {
		f.geo.GEPSDatIasi[s] = ShortCDSTime{Day: 8000, Msec: uint32(s * 8000)}
		for p := 0; p < PN; p++ {
			f.quality.GGeoSondLoc[s][p] = [2]int32{int32(10e6 + s*1e6), int32(-45e6 + p*1e6)}
			f.quality.GGeoSondAnglesMETOP[s][p] = [2]int32{int32(p * 1e6), 0}
			f.quality.GGeoSondAnglesSUN[s][p] = [2]int32{30e6, 120e6}
		}
	}
	return f
}

// setSample sets the raw spectrum value of sample i of one pixel.
func (f *mdrFixture) setSample(scan, pixel, i int, v int16) {
	f.spectrum[(scan*PN+pixel)*SS+i] = v
}

func (f *mdrFixture) encode(t *testing.T, version uint8) []byte {
	t.Helper()
	values := []interface{}{&f.geo, f.irc}
	switch version {
	case MDRVersion4:
		values = append(values, &f.flagsV4)
	case MDRVersion5:
		values = append(values, &f.flagsV5)
	}
	values = append(values, &f.quality, f.spectrum, &f.analysis, f.classified, &f.classification)
	if version == MDRVersion5 {
		values = append(values, &f.tail)
	}
	return encodeBE(t, values...)
}

// encodeProduct lays out an MPHR, the scale factor GIADR and n MDRs.
func encodeProduct(t *testing.T, version uint8, n int) []byte {
	t.Helper()
	var product []byte
	product = append(product, encodeRecord(t, ClassMPHR, 0, 2, mphrContent(map[string]string{
		"PRODUCT_NAME":  "IASI_xxx_1C_M02_20211001000000Z_20211001000259Z_N_O_20211001010000Z",
		"SENSING_START": "20211001000000Z",
		"SENSING_END":   "20211001000259Z",
	}))...)
	product = append(product, encodeRecord(t, ClassIPR, 0, 0, make([]byte, 7))...)
	product = append(product, encodeRecord(t, ClassGIADR, SubclassGIADRScaleFactors, 1, encodeBE(t, uniformScaleFactors(2)))...)
	for i := 0; i < n; i++ {
		f := newMDRFixture(1, 10)
		f.setSample(0, 0, 0, int16(100*(i+1)))
		if version == MDRVersion5 {
			f.tail.GEUMAvhrr1BCldFrac[0][0] = 40
			f.tail.GEUMAvhrr1BLandFrac[0][0] = 60
		}
		product = append(product, encodeRecord(t, ClassMDR, 2, version, f.encode(t, version))...)
	}
	return product
}

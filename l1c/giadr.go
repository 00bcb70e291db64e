package l1c

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// PSF and SRF tables in the quality GIADR have a fixed depth of 100
const giadrTableLength = 100

// giadrQualityLayout is the wire layout of the quality GIADR (PFS 8.3.1)
type giadrQualityLayout struct {
	IDefPsfSondNbLin          [PN]int32
	IDefPsfSondNbCol          [PN]int32
	IDefPsfSondOverSampFactor VInt4
	IDefPsfSondY              [PN][giadrTableLength]int32
	IDefPsfSondZ              [PN][giadrTableLength]int32
	IDefPsfSondWgt            [PN][giadrTableLength][giadrTableLength]VInt4
	IDefllSSrfNsfirst         int32
	IDefllSSrfNslast          int32
	IDefllSSrf                [giadrTableLength]VInt4
	IDefllSSrfDWn             VInt4
	IDefIISNeDT               [IMLI][IMCO]VInt4
	IDefDptIISDeadPix         [IMLI][IMCO]bool
}

// GIADRQuality the point spread function and calibration tables (GIADR subclass 0)
type GIADRQuality struct {
	IDefPsfSondNbLin          [PN]int32                                       // PSF sounder lines per pixel
	IDefPsfSondNbCol          [PN]int32                                       // PSF sounder columns per pixel
	IDefPsfSondOverSampFactor float64                                         // PSF oversampling factor
	IDefPsfSondY              [giadrTableLength][PN]float64                   // PSF Y geometry, deg
	IDefPsfSondZ              [giadrTableLength][PN]float64                   // PSF Z geometry, deg
	IDefPsfSondWgt            [PN][giadrTableLength][giadrTableLength]float64 // PSF weights
	IDefllSSrfNsfirst         int32                                           // first sample of the SRF
	IDefllSSrfNslast          int32                                           // last sample of the SRF
	IDefllSSrf                [giadrTableLength]float64                       // spectral response function
	IDefllSSrfDWn             float64                                         // SRF wavenumber step, m-1
	IDefIISNeDT               [IMLI][IMCO]float64                             // IIS radiometric noise, K
	IDefDptIISDeadPix         [IMLI][IMCO]bool                                // IIS dead pixel mask
}

// ParseGIADRQuality decodes the content of a subclass 0 GIADR. The content
// must be exactly as long as the layout.
func ParseGIADRQuality(content []byte) (*GIADRQuality, error) {
	raw := giadrQualityLayout{}
	if err := readExact(content, "GIADR quality", &raw); err != nil {
		return nil, err
	}

	q := &GIADRQuality{
		IDefPsfSondNbLin:          raw.IDefPsfSondNbLin,
		IDefPsfSondNbCol:          raw.IDefPsfSondNbCol,
		IDefPsfSondOverSampFactor: raw.IDefPsfSondOverSampFactor.Float64(),
		IDefllSSrfNsfirst:         raw.IDefllSSrfNsfirst,
		IDefllSSrfNslast:          raw.IDefllSSrfNslast,
		IDefllSSrfDWn:             raw.IDefllSSrfDWn.Float64(),
		IDefDptIISDeadPix:         raw.IDefDptIISDeadPix,
	}

	// Y and Z are stored pixel major, exposed table major
	for p := 0; p < PN; p++ {
		for i := 0; i < giadrTableLength; i++ {
			q.IDefPsfSondY[i][p] = float64(raw.IDefPsfSondY[p][i]) / 1e6
			q.IDefPsfSondZ[i][p] = float64(raw.IDefPsfSondZ[p][i]) / 1e6
		}
		for i := range raw.IDefPsfSondWgt[p] {
			vint4s(q.IDefPsfSondWgt[p][i][:], raw.IDefPsfSondWgt[p][i][:])
		}
	}
	vint4s(q.IDefllSSrf[:], raw.IDefllSSrf[:])
	for l := range raw.IDefIISNeDT {
		vint4s(q.IDefIISNeDT[l][:], raw.IDefIISNeDT[l][:])
	}

	return q, nil
}

// giadrScaleFactorCount is the number of scale factor bands in the GIADR
const giadrScaleFactorCount = 10

// GIADRScaleFactors the spectral scale factors needed to decode every MDR (GIADR subclass 1, PFS 8.3.2)
type GIADRScaleFactors struct {
	IDefScaleSondNbScale     int16                         // number of bands in use
	IDefScaleSondNsfirst     [giadrScaleFactorCount]int16 // first channel of each band
	IDefScaleSondNslast      [giadrScaleFactorCount]int16 // last channel of each band
	IDefScaleSondScaleFactor [giadrScaleFactorCount]int16 // power of ten divisor of each band
	IDefScaleIISScaleFactor  int16                         // power of ten divisor of the IIS
}

// ParseGIADRScaleFactors decodes the 32 big-endian int16 of a subclass 1 GIADR.
func ParseGIADRScaleFactors(content []byte) (*GIADRScaleFactors, error) {
	sf := GIADRScaleFactors{}
	if err := readExact(content, "GIADR scale factors", &sf); err != nil {
		return nil, err
	}
	return &sf, nil
}

// bands returns the Nslast entries that are in use. Products are expected to
// carry a count between 1 and 10; anything else falls back to the full table.
func (sf *GIADRScaleFactors) bands() []int16 {
	n := int(sf.IDefScaleSondNbScale)
	if n <= 0 || n > giadrScaleFactorCount {
		n = giadrScaleFactorCount
	}
	return sf.IDefScaleSondNslast[:n]
}

// ChannelScaleExponent returns the power of ten the raw samples of channel
// must be divided by. Only the first IDefScaleSondNbScale bands are searched
// when that count is between 1 and 10, so a channel past the last used band
// fails with ScaleLookupError even if a stale table entry would cover it.
func (sf *GIADRScaleFactors) ChannelScaleExponent(channel int) (int16, error) {
	pos := ScaleBand(sf.bands(), channel)
	if pos < 0 {
		return 0, &ScaleLookupError{Channel: channel}
	}
	return sf.IDefScaleSondScaleFactor[pos], nil
}

// ScaleBand returns the index of the first entry of nslast that is greater
// than or equal to channel, or -1 when every entry is smaller.
func ScaleBand(nslast []int16, channel int) int {
	for i, last := range nslast {
		if int(last) >= channel {
			return i
		}
	}
	return -1
}

// readExact decodes content into v and checks every byte was used.
func readExact(content []byte, name string, v interface{}) error {
	want := binary.Size(v)
	r := bytes.NewReader(content)
	if err := binary.Read(r, binary.BigEndian, v); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return &SizeMismatchError{Record: name, Declared: len(content), Consumed: want}
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	if r.Len() != 0 {
		return &SizeMismatchError{Record: name, Declared: len(content), Consumed: want}
	}
	return nil
}

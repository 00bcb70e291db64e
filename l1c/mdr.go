package l1c

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// MDR subclass versions with a known layout
const (
	MDRVersion4 = 4
	MDRVersion5 = 5
)

// the eigenvalue table of the covariance matrix has a fixed depth of 100
const covarianceEigenvalues = 100

// mdrGeolocationLayout runs from the start of the MDR up to GIrcImage (PFS 8.4)
type mdrGeolocationLayout struct {
	DegradedInstMdr      bool
	DegradedProcMdr      bool
	GEPSIasiMode         [4]int8
	GEPSOPSProcMode      [4]int8
	GEPSIdConf           [32]int8
	GEPSLocIasiAvhrrIASI [SNOT][PN][2]VInt4
	GEPSLocIasiAvhrrIIS  [SNOT][SGI][2]VInt4
	OBT                  [SNOT][6]int8
	OnboardUTC           [SNOT]ShortCDSTime
	GEPSDatIasi          [SNOT]ShortCDSTime
	GIsfLinOrigin        [CCD]int32
	GIsfColOrigin        [CCD]int32
	GIsfPds1             [CCD]int32
	GIsfPds2             [CCD]int32
	GIsfPds3             [CCD]int32
	GIsfPds4             [CCD]int32
	GEPSCCD              [SNOT]bool
	GEPSSP               [SNOT]int32
}

// GIrcImage follows as SNOT*IMLI*IMCO uint16, then the version dependent flags

type mdrFlagsV4Layout struct {
	GQisFlagQual [SNOT][PN]bool
}

type mdrFlagsV5Layout struct {
	GQisFlagQual         [SNOT][PN][SB]bool
	GQisFlagQualDetailed [SNOT][PN]int16
}

// mdrQualityLayout runs from GQisQualIndex up to the spectrum
type mdrQualityLayout struct {
	GQisQualIndex          VInt4
	GQisQualIndexIIS       VInt4
	GQisQualIndexLoc       VInt4
	GQisQualIndexRad       VInt4
	GQisQualIndexSpect     VInt4
	GQisSysTecIISQual      uint32
	GQisSysTecSondQual     uint32
	GGeoSondLoc            [SNOT][PN][2]int32
	GGeoSondAnglesMETOP    [SNOT][PN][2]int32
	GGeoIISAnglesMETOP     [SNOT][SGI][2]int32
	GGeoSondAnglesSUN      [SNOT][PN][2]int32
	GGeoIISAnglesSUN       [SNOT][SGI][2]int32
	GGeoIISLoc             [SNOT][SGI][2]int32
	EarthSatelliteDistance uint32
	IDefSpectDWn1b         VInt4
	IDefNsFirst1b          int32
	IDefNsLast1b           int32
}

// GS1cSpect follows as SNOT*PN*SS int16

// mdrAnalysisLayout runs from the covariance eigenvalues up to GCcsImageClassified
type mdrAnalysisLayout struct {
	IDefCovarMatEigenVal1c [covarianceEigenvalues][CCD]VInt4
	IDefCcsChannelId       [NBK]int32
	GCcsRadAnalNbClass     [SNOT][PN]int32
	GCcsRadAnalWgt         [SNOT][PN][NCL]VInt4
	GCcsRadAnalY           [SNOT][PN][NCL]int32
	GCcsRadAnalZ           [SNOT][PN][NCL]int32
	GCcsRadAnalMean        [SNOT][PN][NCL][NBK]VInt4
	GCcsRadAnalStd         [SNOT][PN][NCL][NBK]VInt4
}

// GCcsImageClassified follows as SNOT*AMLI*AMCO uint8

type mdrClassificationLayout struct {
	IDefCcsMode                 int32
	GCcsImageClassifiedNbLin    [SNOT]int16
	GCcsImageClassifiedNbCol    [SNOT]int16
	GCcsImageClassifiedFirstLin [SNOT]VInt4
	GCcsImageClassifiedFirstCol [SNOT]VInt4
	GCcsRadAnalType             [SNOT][NCL]bool
}

type mdrTailV5Layout struct {
	GIacVarImagIIS      [SNOT]VInt4
	GIacAvgImagIIS      [SNOT]VInt4
	GEUMAvhrr1BCldFrac  [SNOT][PN]uint8
	GEUMAvhrr1BLandFrac [SNOT][PN]uint8
	GEUMAvhrr1BQual     [SNOT][PN]int8
}

const (
	ircImageSamples   = SNOT * IMLI * IMCO
	spectrumSamples   = SNOT * PN * SS
	classifiedSamples = SNOT * AMLI * AMCO
)

// MDRContentSize returns the number of content bytes an MDR of the given
// subclass version occupies.
func MDRContentSize(version uint8) int {
	size := binary.Size(mdrGeolocationLayout{}) +
		ircImageSamples*2 +
		binary.Size(mdrQualityLayout{}) +
		spectrumSamples*2 +
		binary.Size(mdrAnalysisLayout{}) +
		classifiedSamples +
		binary.Size(mdrClassificationLayout{})

	switch version {
	case MDRVersion4:
		size += binary.Size(mdrFlagsV4Layout{})
	case MDRVersion5:
		size += binary.Size(mdrFlagsV5Layout{}) + binary.Size(mdrTailV5Layout{})
	}
	return size
}

// MDRExtension holds the fields that only exist in one subclass version.
type MDRExtension interface {
	SubclassVersion() uint8
}

// MDRv4 fields specific to subclass version 4
type MDRv4 struct {
	GQisFlagQual [SNOT][PN]bool // general quality flag per pixel
}

// SubclassVersion implements MDRExtension
func (*MDRv4) SubclassVersion() uint8 { return MDRVersion4 }

// MDRv5 fields specific to subclass version 5
type MDRv5 struct {
	GQisFlagQual         [SNOT][PN][SB]bool // quality flag per pixel and band
	GQisFlagQualDetailed [SNOT][PN]int16    // detailed quality bit field
	GIacVarImagIIS       [SNOT]float64      // variance of the IIS image
	GIacAvgImagIIS       [SNOT]float64      // average of the IIS image
	GEUMAvhrr1BCldFrac   [SNOT][PN]uint8    // AVHRR cloud fraction, %
	GEUMAvhrr1BLandFrac  [SNOT][PN]uint8    // AVHRR land fraction, %
	GEUMAvhrr1BQual      [SNOT][PN]int8     // AVHRR quality indicator
}

// SubclassVersion implements MDRExtension
func (*MDRv5) SubclassVersion() uint8 { return MDRVersion5 }

// MDR Measurement Data Record, one per 30 scan positions (PFS 8.4).
//
// Arrays are indexed scan first, then pixel or grid point, then the inner
// dimension. Geolocation pairs are (longitude, latitude); angle pairs are
// (zenith, azimuth), all in degrees.
type MDR struct {
	DegradedInstMdr bool
	DegradedProcMdr bool
	GEPSIasiMode    [4]int8
	GEPSOPSProcMode [4]int8
	GEPSIdConf      [32]int8

	GEPSLocIasiAvhrrIASI [SNOT][PN][2]float64  // IASI pixel position in the AVHRR raster
	GEPSLocIasiAvhrrIIS  [SNOT][SGI][2]float64 // IIS grid position in the AVHRR raster
	OBT                  [SNOT][6]int8         // on-board time
	OnboardUTC           [SNOT]ShortCDSTime
	GEPSDatIasi          [SNOT]ShortCDSTime // date of each scan position
	GIsfLinOrigin        [CCD]int32
	GIsfColOrigin        [CCD]int32
	GIsfPds1             [CCD]float64
	GIsfPds2             [CCD]float64
	GIsfPds3             [CCD]float64
	GIsfPds4             [CCD]float64
	GEPSCCD              [SNOT]bool
	GEPSSP               [SNOT]int32
	GIrcImage            [SNOT][IMLI][IMCO]uint16 // IIS calibrated image

	GQisQualIndex      float64
	GQisQualIndexIIS   float64
	GQisQualIndexLoc   float64
	GQisQualIndexRad   float64
	GQisQualIndexSpect float64
	GQisSysTecIISQual  uint32
	GQisSysTecSondQual uint32

	GGeoSondLoc            [SNOT][PN][2]float64
	GGeoSondAnglesMETOP    [SNOT][PN][2]float64
	GGeoIISAnglesMETOP     [SNOT][SGI][2]float64
	GGeoSondAnglesSUN      [SNOT][PN][2]float64
	GGeoIISAnglesSUN       [SNOT][SGI][2]float64
	GGeoIISLoc             [SNOT][SGI][2]float64
	EarthSatelliteDistance uint32 // m

	IDefSpectDWn1b float64 // sample width, m-1
	IDefNsFirst1b  int32   // number of the first sample
	IDefNsLast1b   int32   // number of the last sample

	// GS1cSpect holds the descaled radiances of the retained channels,
	// W/m2/sr/m-1. Every inner slice has Channels() entries.
	GS1cSpect [SNOT][PN][]float64

	IDefCovarMatEigenVal1c [CCD][covarianceEigenvalues]float64
	IDefCcsChannelId       [NBK]int32
	GCcsRadAnalNbClass     [SNOT][PN]int32
	GCcsRadAnalWgt         [SNOT][PN][NCL]float64
	GCcsRadAnalY           [SNOT][PN][NCL]float64
	GCcsRadAnalZ           [SNOT][PN][NCL]float64
	GCcsRadAnalMean        [SNOT][PN][NCL][NBK]float64
	GCcsRadAnalStd         [SNOT][PN][NCL][NBK]float64
	GCcsImageClassified    [SNOT][AMLI][AMCO]uint8

	IDefCcsMode                 int32
	GCcsImageClassifiedNbLin    [SNOT]int16
	GCcsImageClassifiedNbCol    [SNOT]int16
	GCcsImageClassifiedFirstLin [SNOT]float64
	GCcsImageClassifiedFirstCol [SNOT]float64
	GCcsRadAnalType             [SNOT][NCL]bool

	// Extension is *MDRv4, *MDRv5 or nil for an unknown subclass version
	Extension MDRExtension
}

// V4 returns the version 4 fields, if this record has them.
func (m *MDR) V4() (*MDRv4, bool) {
	ext, ok := m.Extension.(*MDRv4)
	return ext, ok
}

// V5 returns the version 5 fields, if this record has them.
func (m *MDR) V5() (*MDRv5, bool) {
	ext, ok := m.Extension.(*MDRv5)
	return ext, ok
}

// Channels is the number of spectral channels retained in GS1cSpect.
func (m *MDR) Channels() int {
	return int(m.IDefNsLast1b) - int(m.IDefNsFirst1b) + 1
}

// ObservationTimes returns the UTC time of every scan position.
func (m *MDR) ObservationTimes() []time.Time {
	times := make([]time.Time, SNOT)
	for i, t := range m.GEPSDatIasi {
		times[i] = t.Time()
	}
	return times
}

// mdrReader reads the consecutive layouts of an MDR, counting bytes. The
// first error sticks.
type mdrReader struct {
	r        *bytes.Reader
	consumed int
	err      error
}

func (d *mdrReader) read(v interface{}) {
	if d.err != nil {
		return
	}
	if err := binary.Read(d.r, binary.BigEndian, v); err != nil {
		d.err = err
		return
	}
	d.consumed += binary.Size(v)
}

// ParseMDR decodes the content of an MDR. The scale factor GIADR of the same
// product is needed to descale the spectra.
func ParseMDR(content []byte, hdr RecordHeader, sf *GIADRScaleFactors) (*MDR, error) {
	if sf == nil {
		return nil, ErrMissingDependency
	}

	declared := hdr.ContentSize()
	if len(content) != declared {
		return nil, &SizeMismatchError{Record: "MDR", Declared: declared, Consumed: len(content)}
	}

	d := &mdrReader{r: bytes.NewReader(content)}

	geo := mdrGeolocationLayout{}
	d.read(&geo)
	irc := make([]uint16, ircImageSamples)
	d.read(irc)

	var ext MDRExtension
	var flagsV5 mdrFlagsV5Layout
	switch hdr.RecordSubclassVersion {
	case MDRVersion4:
		flags := mdrFlagsV4Layout{}
		d.read(&flags)
		ext = &MDRv4{GQisFlagQual: flags.GQisFlagQual}
	case MDRVersion5:
		d.read(&flagsV5)
	default:
		logrus.Debugf("MDR subclass version %d has no known flag layout", hdr.RecordSubclassVersion)
	}

	quality := mdrQualityLayout{}
	d.read(&quality)
	spectrum := make([]int16, spectrumSamples)
	d.read(spectrum)
	analysis := mdrAnalysisLayout{}
	d.read(&analysis)
	classified := make([]uint8, classifiedSamples)
	d.read(classified)
	classification := mdrClassificationLayout{}
	d.read(&classification)

	if hdr.RecordSubclassVersion == MDRVersion5 {
		tail := mdrTailV5Layout{}
		d.read(&tail)
		v5 := &MDRv5{
			GQisFlagQual:         flagsV5.GQisFlagQual,
			GQisFlagQualDetailed: flagsV5.GQisFlagQualDetailed,
			GEUMAvhrr1BCldFrac:   tail.GEUMAvhrr1BCldFrac,
			GEUMAvhrr1BLandFrac:  tail.GEUMAvhrr1BLandFrac,
			GEUMAvhrr1BQual:      tail.GEUMAvhrr1BQual,
		}
		vint4s(v5.GIacVarImagIIS[:], tail.GIacVarImagIIS[:])
		vint4s(v5.GIacAvgImagIIS[:], tail.GIacAvgImagIIS[:])
		ext = v5
	}

	if d.err != nil {
		if d.err == io.EOF || d.err == io.ErrUnexpectedEOF {
			return nil, &SizeMismatchError{Record: "MDR", Declared: declared, Consumed: MDRContentSize(hdr.RecordSubclassVersion)}
		}
		return nil, fmt.Errorf("MDR: %w", d.err)
	}
	if d.consumed != declared {
		return nil, &SizeMismatchError{Record: "MDR", Declared: declared, Consumed: d.consumed}
	}

	m := &MDR{Extension: ext}
	m.setGeolocation(&geo, irc)
	m.setQuality(&quality)
	if err := m.setSpectrum(spectrum, sf); err != nil {
		return nil, err
	}
	m.setAnalysis(&analysis, classified, &classification)

	logrus.Tracef("  MDR v%d samples %d..%d, %d channels", hdr.RecordSubclassVersion, m.IDefNsFirst1b, m.IDefNsLast1b, m.Channels())
	return m, nil
}

func (m *MDR) setGeolocation(geo *mdrGeolocationLayout, irc []uint16) {
	m.DegradedInstMdr = geo.DegradedInstMdr
	m.DegradedProcMdr = geo.DegradedProcMdr
	m.GEPSIasiMode = geo.GEPSIasiMode
	m.GEPSOPSProcMode = geo.GEPSOPSProcMode
	m.GEPSIdConf = geo.GEPSIdConf
	m.OBT = geo.OBT
	m.OnboardUTC = geo.OnboardUTC
	m.GEPSDatIasi = geo.GEPSDatIasi
	m.GIsfLinOrigin = geo.GIsfLinOrigin
	m.GIsfColOrigin = geo.GIsfColOrigin
	scaled(m.GIsfPds1[:], geo.GIsfPds1[:], 1e6)
	scaled(m.GIsfPds2[:], geo.GIsfPds2[:], 1e6)
	scaled(m.GIsfPds3[:], geo.GIsfPds3[:], 1e6)
	scaled(m.GIsfPds4[:], geo.GIsfPds4[:], 1e6)
	m.GEPSCCD = geo.GEPSCCD
	m.GEPSSP = geo.GEPSSP

	for s := 0; s < SNOT; s++ {
		for p := 0; p < PN; p++ {
			vint4s(m.GEPSLocIasiAvhrrIASI[s][p][:], geo.GEPSLocIasiAvhrrIASI[s][p][:])
		}
		for g := 0; g < SGI; g++ {
			vint4s(m.GEPSLocIasiAvhrrIIS[s][g][:], geo.GEPSLocIasiAvhrrIIS[s][g][:])
		}
		for l := 0; l < IMLI; l++ {
			copy(m.GIrcImage[s][l][:], irc[(s*IMLI+l)*IMCO:])
		}
	}
}

func (m *MDR) setQuality(q *mdrQualityLayout) {
	m.GQisQualIndex = q.GQisQualIndex.Float64()
	m.GQisQualIndexIIS = q.GQisQualIndexIIS.Float64()
	m.GQisQualIndexLoc = q.GQisQualIndexLoc.Float64()
	m.GQisQualIndexRad = q.GQisQualIndexRad.Float64()
	m.GQisQualIndexSpect = q.GQisQualIndexSpect.Float64()
	m.GQisSysTecIISQual = q.GQisSysTecIISQual
	m.GQisSysTecSondQual = q.GQisSysTecSondQual
	m.EarthSatelliteDistance = q.EarthSatelliteDistance
	m.IDefSpectDWn1b = q.IDefSpectDWn1b.Float64()
	m.IDefNsFirst1b = q.IDefNsFirst1b
	m.IDefNsLast1b = q.IDefNsLast1b

	for s := 0; s < SNOT; s++ {
		for p := 0; p < PN; p++ {
			scaled(m.GGeoSondLoc[s][p][:], q.GGeoSondLoc[s][p][:], 1e6)
			scaled(m.GGeoSondAnglesMETOP[s][p][:], q.GGeoSondAnglesMETOP[s][p][:], 1e6)
			scaled(m.GGeoSondAnglesSUN[s][p][:], q.GGeoSondAnglesSUN[s][p][:], 1e6)
		}
		for g := 0; g < SGI; g++ {
			scaled(m.GGeoIISAnglesMETOP[s][g][:], q.GGeoIISAnglesMETOP[s][g][:], 1e6)
			scaled(m.GGeoIISAnglesSUN[s][g][:], q.GGeoIISAnglesSUN[s][g][:], 1e6)
			scaled(m.GGeoIISLoc[s][g][:], q.GGeoIISLoc[s][g][:], 1e6)
		}
	}
}

// setSpectrum keeps the first Channels() samples of every pixel and divides
// each channel by the power of ten of its scale factor band. Sample i has the
// channel number IDefNsFirst1b-1+i in the scale factor tables.
func (m *MDR) setSpectrum(raw []int16, sf *GIADRScaleFactors) error {
	n := m.Channels()
	if n < 0 || n > SS {
		return fmt.Errorf("%w: samples %d..%d", ErrChannelRange, m.IDefNsFirst1b, m.IDefNsLast1b)
	}

	divisors := make([]float64, n)
	for i := range divisors {
		exp, err := sf.ChannelScaleExponent(int(m.IDefNsFirst1b) - 1 + i)
		if err != nil {
			return err
		}
		divisors[i] = math.Pow10(int(exp))
	}

	samples := make([]float64, n)
	for s := 0; s < SNOT; s++ {
		for p := 0; p < PN; p++ {
			row := raw[(s*PN+p)*SS:]
			for i := range samples {
				samples[i] = float64(row[i])
			}
			m.GS1cSpect[s][p] = floats.DivTo(make([]float64, n), samples, divisors)
		}
	}
	return nil
}

func (m *MDR) setAnalysis(a *mdrAnalysisLayout, classified []uint8, c *mdrClassificationLayout) {
	for i := 0; i < covarianceEigenvalues; i++ {
		for d := 0; d < CCD; d++ {
			m.IDefCovarMatEigenVal1c[d][i] = a.IDefCovarMatEigenVal1c[i][d].Float64()
		}
	}
	m.IDefCcsChannelId = a.IDefCcsChannelId
	m.GCcsRadAnalNbClass = a.GCcsRadAnalNbClass

	for s := 0; s < SNOT; s++ {
		for p := 0; p < PN; p++ {
			vint4s(m.GCcsRadAnalWgt[s][p][:], a.GCcsRadAnalWgt[s][p][:])
			scaled(m.GCcsRadAnalY[s][p][:], a.GCcsRadAnalY[s][p][:], 1e6)
			scaled(m.GCcsRadAnalZ[s][p][:], a.GCcsRadAnalZ[s][p][:], 1e6)
			for k := 0; k < NCL; k++ {
				vint4s(m.GCcsRadAnalMean[s][p][k][:], a.GCcsRadAnalMean[s][p][k][:])
				vint4s(m.GCcsRadAnalStd[s][p][k][:], a.GCcsRadAnalStd[s][p][k][:])
			}
		}
		for l := 0; l < AMLI; l++ {
			copy(m.GCcsImageClassified[s][l][:], classified[(s*AMLI+l)*AMCO:])
		}
	}

	m.IDefCcsMode = c.IDefCcsMode
	m.GCcsImageClassifiedNbLin = c.GCcsImageClassifiedNbLin
	m.GCcsImageClassifiedNbCol = c.GCcsImageClassifiedNbCol
	vint4s(m.GCcsImageClassifiedFirstLin[:], c.GCcsImageClassifiedFirstLin[:])
	vint4s(m.GCcsImageClassifiedFirstCol[:], c.GCcsImageClassifiedFirstCol[:])
	m.GCcsRadAnalType = c.GCcsRadAnalType
}

// scaled converts fixed point integers to floats
func scaled(dst []float64, src []int32, divisor float64) {
	for i, v := range src {
		dst[i] = float64(v) / divisor
	}
}

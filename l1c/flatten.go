package l1c

import (
	"fmt"
	"time"
)

// The accessors below concatenate one value per IASI pixel over every MDR of
// the product, scan by scan and pixel by pixel.

const (
	// first and last wavenumber of the L1C spectrum, cm-1
	firstWavenumber = 645.0
	lastWavenumber  = 2760.0

	// SpectrumChannels is the number of channels of a full L1C spectrum
	SpectrumChannels = 8461
)

func (f *File) perPixel(value func(m *MDR, scan, pixel int) float64) ([]float64, error) {
	mdrs, err := f.MDRs()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(mdrs)*SNOT*PN)
	for _, m := range mdrs {
		for s := 0; s < SNOT; s++ {
			for p := 0; p < PN; p++ {
				out = append(out, value(m, s, p))
			}
		}
	}
	return out, nil
}

// Longitudes of every pixel, degrees
func (f *File) Longitudes() ([]float64, error) {
	return f.perPixel(func(m *MDR, s, p int) float64 { return m.GGeoSondLoc[s][p][0] })
}

// Latitudes of every pixel, degrees
func (f *File) Latitudes() ([]float64, error) {
	return f.perPixel(func(m *MDR, s, p int) float64 { return m.GGeoSondLoc[s][p][1] })
}

// ZenithAngles satellite zenith angle of every pixel, degrees
func (f *File) ZenithAngles() ([]float64, error) {
	return f.perPixel(func(m *MDR, s, p int) float64 { return m.GGeoSondAnglesMETOP[s][p][0] })
}

// SolarZenithAngles of every pixel, degrees
func (f *File) SolarZenithAngles() ([]float64, error) {
	return f.perPixel(func(m *MDR, s, p int) float64 { return m.GGeoSondAnglesSUN[s][p][0] })
}

// SolarAzimuthAngles of every pixel, degrees
func (f *File) SolarAzimuthAngles() ([]float64, error) {
	return f.perPixel(func(m *MDR, s, p int) float64 { return m.GGeoSondAnglesSUN[s][p][1] })
}

// AvhrrCloudFractions of every pixel, %. Only version 5 MDRs carry them.
func (f *File) AvhrrCloudFractions() ([]uint8, error) {
	return f.perPixelV5(func(v5 *MDRv5, s, p int) uint8 { return v5.GEUMAvhrr1BCldFrac[s][p] })
}

// LandFractions of every pixel, %. Only version 5 MDRs carry them.
func (f *File) LandFractions() ([]uint8, error) {
	return f.perPixelV5(func(v5 *MDRv5, s, p int) uint8 { return v5.GEUMAvhrr1BLandFrac[s][p] })
}

func (f *File) perPixelV5(value func(v5 *MDRv5, scan, pixel int) uint8) ([]uint8, error) {
	mdrs, err := f.MDRs()
	if err != nil {
		return nil, err
	}
	out := make([]uint8, 0, len(mdrs)*SNOT*PN)
	for i, m := range mdrs {
		v5, ok := m.V5()
		if !ok {
			return nil, fmt.Errorf("%w: MDR %d has no AVHRR fractions", ErrRecordNotFound, i)
		}
		for s := 0; s < SNOT; s++ {
			for p := 0; p < PN; p++ {
				out = append(out, value(v5, s, p))
			}
		}
	}
	return out, nil
}

// perPixelTime repeats one value per scan position for every pixel
func (f *File) perPixelTime(value func(t ShortCDSTime) int32) ([]int32, error) {
	mdrs, err := f.MDRs()
	if err != nil {
		return nil, err
	}
	out := make([]int32, 0, len(mdrs)*SNOT*PN)
	for _, m := range mdrs {
		for _, t := range m.GEPSDatIasi {
			for p := 0; p < PN; p++ {
				out = append(out, value(t))
			}
		}
	}
	return out, nil
}

// ObservationDays day of every pixel, counted from 2000-01-01
func (f *File) ObservationDays() ([]int32, error) {
	return f.perPixelTime(func(t ShortCDSTime) int32 { return int32(t.Day) })
}

// ObservationMsecs millisecond of the day of every pixel
func (f *File) ObservationMsecs() ([]int32, error) {
	return f.perPixelTime(func(t ShortCDSTime) int32 { return int32(t.Msec) })
}

// ObservationTimes UTC time of every pixel
func (f *File) ObservationTimes() ([]time.Time, error) {
	mdrs, err := f.MDRs()
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(mdrs)*SNOT*PN)
	for _, m := range mdrs {
		for _, t := range m.ObservationTimes() {
			for p := 0; p < PN; p++ {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// Radiances returns one spectrum per pixel. Rows share storage with the MDRs.
func (f *File) Radiances() ([][]float64, error) {
	mdrs, err := f.MDRs()
	if err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(mdrs)*SNOT*PN)
	for _, m := range mdrs {
		for s := 0; s < SNOT; s++ {
			for p := 0; p < PN; p++ {
				out = append(out, m.GS1cSpect[s][p])
			}
		}
	}
	return out, nil
}

// ChannelWavenumbers returns the wavenumber of every L1C channel, cm-1.
func ChannelWavenumbers() []float64 {
	step := (lastWavenumber - firstWavenumber) / (SpectrumChannels - 1)
	out := make([]float64, SpectrumChannels)
	for i := range out {
		out[i] = firstWavenumber + float64(i)*step
	}
	return out
}

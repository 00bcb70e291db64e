// Package quicklook renders the imagery carried by IASI MDRs as PNGs.
package quicklook

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/jddeal/go-iasi/l1c"
	"golang.org/x/image/draw"
)

// ClassPalette colours the AVHRR cloud classification: 0 is unclassified,
// then one colour per radiance analysis class.
var ClassPalette = color.Palette{
	color.RGBA{0, 0, 0, 255},
	color.RGBA{0, 90, 200, 255},
	color.RGBA{60, 220, 20, 255},
	color.RGBA{220, 220, 0, 255},
	color.RGBA{255, 150, 0, 255},
	color.RGBA{255, 0, 50, 255},
	color.RGBA{200, 200, 200, 255},
	color.RGBA{255, 255, 255, 255},
}

func checkScan(scan int) error {
	if scan < 0 || scan >= l1c.SNOT {
		return fmt.Errorf("scan %d outside [0, %d)", scan, l1c.SNOT)
	}
	return nil
}

// IISImage returns the calibrated IIS image of one scan, contrast stretched
// and resampled to size x size pixels.
func IISImage(m *l1c.MDR, scan, size int) (*image.Gray16, error) {
	if err := checkScan(scan); err != nil {
		return nil, err
	}

	raw := &m.GIrcImage[scan]
	lo, hi := raw[0][0], raw[0][0]
	for _, line := range raw {
		for _, v := range line {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	span := float64(hi - lo)
	if span == 0 {
		span = 1
	}

	src := image.NewGray16(image.Rect(0, 0, l1c.IMCO, l1c.IMLI))
	for y, line := range raw {
		for x, v := range line {
			src.SetGray16(x, y, color.Gray16{Y: uint16(float64(v-lo) / span * 0xffff)})
		}
	}

	dst := image.NewGray16(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// CloudClassification returns the AVHRR classified image of one scan
// resampled to size x size pixels. Classes are never blended.
func CloudClassification(m *l1c.MDR, scan, size int) (*image.Paletted, error) {
	if err := checkScan(scan); err != nil {
		return nil, err
	}

	src := image.NewPaletted(image.Rect(0, 0, l1c.AMCO, l1c.AMLI), ClassPalette)
	for y, line := range m.GCcsImageClassified[scan] {
		for x, class := range line {
			if int(class) >= len(ClassPalette) {
				class = 0
			}
			src.SetColorIndex(x, y, class)
		}
	}

	dst := image.NewPaletted(image.Rect(0, 0, size, size), ClassPalette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// WritePNG encodes img to w.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

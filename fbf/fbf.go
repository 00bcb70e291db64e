// Package fbf writes flat binary files: raw little-endian arrays whose name
// carries the element type and every dimension but the first, e.g.
// "iasi_radiance.real8.8461".
package fbf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ErrShape the requested shape does not match the number of elements
var ErrShape = errors.New("shape does not match data")

// Name builds the file name for an array of the given element type and shape.
func Name(name, elemType string, shape []int) string {
	parts := []string{name, elemType}
	if len(shape) > 1 {
		for _, dim := range shape[1:] {
			parts = append(parts, strconv.Itoa(dim))
		}
	}
	return strings.Join(parts, ".")
}

// Write stores data in dir and returns the path written. data is one of
// []float64, []float32, []int32, []int16, []uint8 or [][]float64 (rows of
// equal length). Without an explicit shape the natural one is used.
func Write(dir, name string, data interface{}, shape ...int) (string, error) {
	var flat interface{}
	var elemType string
	var natural []int

	switch v := data.(type) {
	case []float64:
		flat, elemType, natural = v, "real8", []int{len(v)}
	case []float32:
		flat, elemType, natural = v, "real4", []int{len(v)}
	case []int32:
		flat, elemType, natural = v, "int4", []int{len(v)}
	case []int16:
		flat, elemType, natural = v, "int2", []int{len(v)}
	case []uint8:
		flat, elemType, natural = v, "uint1", []int{len(v)}
	case [][]float64:
		cols := 0
		if len(v) > 0 {
			cols = len(v[0])
		}
		rows := make([]float64, 0, len(v)*cols)
		for i, row := range v {
			if len(row) != cols {
				return "", fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), cols)
			}
			rows = append(rows, row...)
		}
		flat, elemType, natural = rows, "real8", []int{len(v), cols}
	default:
		return "", fmt.Errorf("fbf: unsupported data type %T", data)
	}

	if len(shape) == 0 {
		shape = natural
	}
	want := 1
	for _, dim := range natural {
		want *= dim
	}
	got := 1
	for _, dim := range shape {
		got *= dim
	}
	if got != want {
		return "", fmt.Errorf("%w: shape %v holds %d elements, data has %d", ErrShape, shape, got, want)
	}

	path := filepath.Join(dir, Name(name, elemType, shape))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, flat); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	logrus.Debugf("wrote %s (%s elements)", path, color.CyanString("%d", want))
	return path, file.Close()
}

// Package l1c provides structs and functions for decoding IASI Level 1C products
// stored in the EPS native format.
//
// The documents used and referenced in this package:
//  • GPFS: EPS Generic Product Format Specification (record headers, MPHR, the container)
//  • PFS: IASI Level 1 Product Format Specification (GIADR and MDR layouts)
package l1c

import (
	"fmt"
	"time"
)

// Instrument dimensions (PFS 8.1). Every GIADR and MDR field length is a fixed
// function of these.
const (
	AMCO = 100  // AVHRR image columns in the cloud classification
	AMLI = 100  // AVHRR image lines in the cloud classification
	CCD  = 2    // corner cube directions
	IMCO = 64   // IIS image columns
	IMLI = 64   // IIS image lines
	NBK  = 6    // AVHRR channels used by the radiance analysis
	NCL  = 7    // radiance analysis classes
	PN   = 4    // sounder pixels per scan
	SB   = 3    // spectral bands
	SGI  = 25   // IIS sub-grid points
	SNOT = 30   // scans per MDR (steps of the scan mirror)
	SS   = 8700 // spectral samples per pixel

	// RecordHeaderLength is the size of the GRH in front of every record
	RecordHeaderLength = 20
)

// RecordClass identifies the kind of record following a GRH (GPFS 4.3.1)
type RecordClass uint8

const (
	ClassMPHR  RecordClass = 1
	ClassSPHR  RecordClass = 2
	ClassIPR   RecordClass = 3
	ClassGEADR RecordClass = 4
	ClassGIADR RecordClass = 5
	ClassVEADR RecordClass = 6
	ClassVIADR RecordClass = 7
	ClassMDR   RecordClass = 8
)

var recordClassNames = map[RecordClass]string{
	ClassMPHR:  "MPHR",
	ClassSPHR:  "SPHR",
	ClassIPR:   "IPR",
	ClassGEADR: "GEADR",
	ClassGIADR: "GIADR",
	ClassVEADR: "VEADR",
	ClassVIADR: "VIADR",
	ClassMDR:   "MDR",
}

// Valid reports whether c is one of the classes defined by the GPFS.
func (c RecordClass) Valid() bool {
	_, ok := recordClassNames[c]
	return ok
}

func (c RecordClass) String() string {
	if name, ok := recordClassNames[c]; ok {
		return name
	}
	return fmt.Sprintf("RecordClass(%d)", uint8(c))
}

// GIADR subclasses used by IASI L1C
const (
	SubclassGIADRQuality      = 0
	SubclassGIADRScaleFactors = 1
)

// epsEpoch is the reference for all short CDS times in EPS products
var epsEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ShortCDSTime is a (day, millisecond) pair counted from 2000-01-01 (GPFS 4.2)
type ShortCDSTime struct {
	Day  uint16 // days since 2000-01-01
	Msec uint32 // milliseconds since the start of the day
}

// Time converts the pair to UTC.
func (t ShortCDSTime) Time() time.Time {
	return epsEpoch.
		Add(time.Duration(t.Day) * time.Hour * 24).
		Add(time.Duration(t.Msec) * time.Millisecond)
}

// RecordHeader is the Generic Record Header (GRH) in front of every record (GPFS 4.3.1)
type RecordHeader struct {
	RecordClass           RecordClass
	InstrumentGroup       uint8
	RecordSubclass        uint8
	RecordSubclassVersion uint8
	RecordSize            uint32 // size of the whole record, GRH included
	RecordStartTime       ShortCDSTime
	RecordStopTime        ShortCDSTime
}

// ContentSize is the number of bytes following the GRH.
func (h RecordHeader) ContentSize() int {
	return int(h.RecordSize) - RecordHeaderLength
}

func (h RecordHeader) String() string {
	return fmt.Sprintf("%s subclass=%d version=%d size=%d %v - %v",
		h.RecordClass,
		h.RecordSubclass,
		h.RecordSubclassVersion,
		h.RecordSize,
		h.RecordStartTime.Time().Format(time.RFC3339),
		h.RecordStopTime.Time().Format(time.RFC3339),
	)
}

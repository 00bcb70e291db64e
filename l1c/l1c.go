package l1c

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Content is the body of a record: *MPHR, *GIADRQuality, *GIADRScaleFactors,
// *MDR or RawContent for everything that is kept uninterpreted.
type Content interface {
	Interpreted() bool
}

// RawContent is the undecoded body of a record
type RawContent []byte

// Interpreted implements Content
func (RawContent) Interpreted() bool { return false }

// Interpreted implements Content
func (*MPHR) Interpreted() bool { return true }

// Interpreted implements Content
func (*GIADRQuality) Interpreted() bool { return true }

// Interpreted implements Content
func (*GIADRScaleFactors) Interpreted() bool { return true }

// Interpreted implements Content
func (*MDR) Interpreted() bool { return true }

// Record is one GRH and the content that follows it. Raw always holds the
// content bytes as read from the product.
type Record struct {
	Header  RecordHeader
	Content Content
	Raw     []byte
}

// Class of the record
func (r *Record) Class() RecordClass {
	return r.Header.RecordClass
}

// Size of the record in bytes, GRH included
func (r *Record) Size() int {
	return int(r.Header.RecordSize)
}

// Interpreted reports whether the content has been decoded.
func (r *Record) Interpreted() bool {
	return r.Content != nil && r.Content.Interpreted()
}

// Bytes returns the record exactly as it was stored in the product.
func (r *Record) Bytes() ([]byte, error) {
	grh, err := r.Header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(grh, r.Raw...), nil
}

// File wrapper for a decoded IASI L1C product
type File struct {
	size    int64
	records []*Record

	// record positions grouped by class, in file order
	positions map[RecordClass][]int

	workers int
	eager   bool

	mtx         sync.Mutex
	mdrResolved bool
}

// Option configures how a product is loaded.
type Option func(*File)

// WithWorkers decodes MDRs on n goroutines. Records keep their file order.
func WithWorkers(n int) Option {
	return func(f *File) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithEagerMDRs decodes every MDR during the load instead of on first access.
func WithEagerMDRs() Option {
	return func(f *File) {
		f.eager = true
	}
}

// NewFile reads a product of size bytes from reader. The MPHR and the GIADRs
// are decoded right away; MDRs need the scale factor GIADR and are decoded by
// ResolveMDRs.
func NewFile(reader io.Reader, size int64, opts ...Option) (*File, error) {
	f := &File{
		size:      size,
		positions: make(map[RecordClass][]int),
		workers:   1,
	}
	for _, opt := range opts {
		opt(f)
	}

	// the product is nothing but GRH + content pairs back to back, with no
	// index or footer; the record sizes must add up to the file size
	var read int64
	for read < size {
		rec, err := readRecord(reader, size-read)
		if err != nil {
			return nil, fmt.Errorf("record %d at offset %d: %w", len(f.records), read, err)
		}
		read += int64(rec.Header.RecordSize)

		f.positions[rec.Class()] = append(f.positions[rec.Class()], len(f.records))
		f.records = append(f.records, rec)
	}

	logrus.Debugf("found %s records in %s bytes", color.CyanString("%d", len(f.records)), color.CyanString("%d", size))
	for class := ClassMPHR; class <= ClassMDR; class++ {
		if n := len(f.positions[class]); n > 0 {
			logrus.Debugf("  %-5s %d records", class, n)
		}
	}

	if f.eager {
		if err := f.ResolveMDRs(); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Open loads the product stored at filename. The file is closed before
// returning.
func Open(filename string, opts ...Option) (*File, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	logrus.Infof("decoding %s (%s bytes)", filename, color.CyanString("%d", info.Size()))
	return NewFile(bufio.NewReader(file), info.Size(), opts...)
}

// readRecord reads one GRH and its content, decoding what can be decoded on
// its own. The record must fit in the remaining bytes of the product.
func readRecord(reader io.Reader, remaining int64) (*Record, error) {
	hdr, err := ReadRecordHeader(reader)
	if err != nil {
		return nil, err
	}
	if int64(hdr.RecordSize) > remaining {
		return nil, &SizeMismatchError{Record: hdr.RecordClass.String(), Declared: int(remaining), Consumed: int(hdr.RecordSize)}
	}

	raw := make([]byte, hdr.ContentSize())
	if n, err := io.ReadFull(reader, raw); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: %s declares %d content bytes, got %d", ErrTruncatedInput, hdr.RecordClass, len(raw), n)
		}
		return nil, err
	}

	logrus.Tracef("%s record (subclass %d, version %d, %s bytes)",
		hdr.RecordClass, hdr.RecordSubclass, hdr.RecordSubclassVersion, color.CyanString("%d", hdr.RecordSize))

	rec := &Record{Header: hdr, Raw: raw, Content: RawContent(raw)}
	switch {
	case hdr.RecordClass == ClassMPHR:
		rec.Content, err = ParseMPHR(raw)
	case hdr.RecordClass == ClassGIADR && hdr.RecordSubclass == SubclassGIADRQuality:
		rec.Content, err = ParseGIADRQuality(raw)
	case hdr.RecordClass == ClassGIADR && hdr.RecordSubclass == SubclassGIADRScaleFactors:
		rec.Content, err = ParseGIADRScaleFactors(raw)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Size of the product in bytes
func (f *File) Size() int64 {
	return f.size
}

// Len is the number of records in the product
func (f *File) Len() int {
	return len(f.records)
}

// Records returns every record in file order.
func (f *File) Records() []*Record {
	return f.records
}

// Record returns the i-th record of the product.
func (f *File) Record(i int) (*Record, error) {
	if i < 0 || i >= len(f.records) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(f.records))
	}
	return f.records[i], nil
}

// RecordsOfClass returns the records of one class in file order.
func (f *File) RecordsOfClass(class RecordClass) []*Record {
	positions := f.positions[class]
	records := make([]*Record, len(positions))
	for i, pos := range positions {
		records[i] = f.records[pos]
	}
	return records
}

// MPHR returns the main product header.
func (f *File) MPHR() (*MPHR, error) {
	for _, pos := range f.positions[ClassMPHR] {
		if m, ok := f.records[pos].Content.(*MPHR); ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: MPHR", ErrRecordNotFound)
}

// GIADRQuality returns the first quality GIADR.
func (f *File) GIADRQuality() (*GIADRQuality, error) {
	for _, pos := range f.positions[ClassGIADR] {
		if q, ok := f.records[pos].Content.(*GIADRQuality); ok {
			return q, nil
		}
	}
	return nil, fmt.Errorf("%w: GIADR quality", ErrRecordNotFound)
}

// GIADRScaleFactors returns the first scale factor GIADR.
func (f *File) GIADRScaleFactors() (*GIADRScaleFactors, error) {
	all := f.scaleFactors()
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: GIADR scale factors", ErrRecordNotFound)
	}
	return all[0], nil
}

func (f *File) scaleFactors() []*GIADRScaleFactors {
	var all []*GIADRScaleFactors
	for _, pos := range f.positions[ClassGIADR] {
		if sf, ok := f.records[pos].Content.(*GIADRScaleFactors); ok {
			all = append(all, sf)
		}
	}
	return all
}

// MDRs returns every measurement record in file order, decoding them first
// if needed.
func (f *File) MDRs() ([]*MDR, error) {
	if err := f.ResolveMDRs(); err != nil {
		return nil, err
	}
	positions := f.positions[ClassMDR]
	mdrs := make([]*MDR, len(positions))
	for i, pos := range positions {
		mdrs[i] = f.records[pos].Content.(*MDR)
	}
	return mdrs, nil
}

// ResolveMDRs decodes every MDR with the product's scale factor GIADR and
// replaces its raw content in place. Calling it again is a no-op. If any MDR
// fails nothing is replaced.
func (f *File) ResolveMDRs() error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if f.mdrResolved {
		return nil
	}

	sfs := f.scaleFactors()
	switch len(sfs) {
	case 0:
		return ErrMissingDependency
	case 1:
	default:
		return fmt.Errorf("%w: found %d", ErrAmbiguousDependency, len(sfs))
	}
	sf := sfs[0]

	positions := f.positions[ClassMDR]
	decoded := make([]*MDR, len(positions))
	errs := make([]error, len(positions))

	decode := func(i int) {
		rec := f.records[positions[i]]
		decoded[i], errs[i] = ParseMDR(rec.Raw, rec.Header, sf)
	}

	if f.workers <= 1 {
		for i := range positions {
			decode(i)
			if errs[i] != nil {
				break
			}
		}
	} else {
		wg := sync.WaitGroup{}
		next := make(chan int)
		for w := 0; w < f.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range next {
					decode(i)
				}
			}()
		}
		for i := range positions {
			next <- i
		}
		close(next)
		wg.Wait()
	}

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("MDR %d (record %d): %w", i, positions[i], err)
		}
	}

	for i, pos := range positions {
		f.records[pos].Content = decoded[i]
	}
	f.mdrResolved = true

	logrus.Debugf("decoded %s MDRs", color.CyanString("%d", len(positions)))
	return nil
}

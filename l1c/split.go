package l1c

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// splitTimeLayout replaces $SD and $ED in split file names
const splitTimeLayout = "20060102150405Z"

// SplitOptions controls File.Split.
type SplitOptions struct {
	// Threshold is the maximum size of every output, in bytes
	Threshold int64

	// NamePattern names the outputs: $F is the index of the part, $SD and $ED
	// the first and last observation time it covers. Defaults to "split_$F".
	NamePattern string

	// OutputDir defaults to the working directory
	OutputDir string

	// TempName is the file each part is written to before being renamed.
	// Defaults to "temp".
	TempName string
}

func (o SplitOptions) withDefaults() SplitOptions {
	if o.NamePattern == "" {
		o.NamePattern = "split_$F"
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.TempName == "" {
		o.TempName = "temp"
	}
	return o
}

// Split writes the product into several smaller products of at most
// opts.Threshold bytes. Each of them repeats every non-MDR record and carries
// a consecutive run of MDRs. Records are copied byte for byte. It returns the
// paths written, in order.
func (f *File) Split(opts SplitOptions) ([]string, error) {
	opts = opts.withDefaults()

	mdrs, err := f.MDRs()
	if err != nil {
		return nil, err
	}
	if len(mdrs) == 0 {
		return nil, fmt.Errorf("%w: no MDR to split", ErrRecordNotFound)
	}

	var header []*Record
	var headerSize, largestMDR int64
	for _, rec := range f.records {
		if rec.Class() == ClassMDR {
			if int64(rec.Size()) > largestMDR {
				largestMDR = int64(rec.Size())
			}
			continue
		}
		header = append(header, rec)
		headerSize += int64(rec.Size())
	}
	if opts.Threshold < headerSize+largestMDR {
		return nil, fmt.Errorf("%w: need at least %d bytes, got %d", ErrThresholdTooSmall, headerSize+largestMDR, opts.Threshold)
	}

	s := &splitter{opts: opts, header: header}
	defer s.abort()

	for i, rec := range f.RecordsOfClass(ClassMDR) {
		if s.out == nil || s.written+int64(rec.Size()) > opts.Threshold {
			if s.out != nil {
				if err := s.finish(); err != nil {
					return nil, err
				}
			}
			if err := s.start(); err != nil {
				return nil, err
			}
		}
		if err := s.write(rec); err != nil {
			return nil, err
		}
		s.times = append(s.times, mdrs[i].ObservationTimes()...)
	}
	if err := s.finish(); err != nil {
		return nil, err
	}
	return s.paths, nil
}

type splitter struct {
	opts   SplitOptions
	header []*Record

	file    *os.File
	out     *bufio.Writer
	written int64
	times   []time.Time
	paths   []string
}

func (s *splitter) tempPath() string {
	return filepath.Join(s.opts.OutputDir, s.opts.TempName)
}

func (s *splitter) start() error {
	file, err := os.Create(s.tempPath())
	if err != nil {
		return err
	}
	s.file = file
	s.out = bufio.NewWriter(file)
	s.written = 0
	s.times = s.times[:0]

	for _, rec := range s.header {
		if err := s.write(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *splitter) write(rec *Record) error {
	raw, err := rec.Bytes()
	if err != nil {
		return err
	}
	if _, err := s.out.Write(raw); err != nil {
		return err
	}
	s.written += int64(len(raw))
	return nil
}

func (s *splitter) finish() error {
	if err := s.out.Flush(); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		return err
	}
	s.out, s.file = nil, nil

	first, last := s.times[0], s.times[0]
	for _, t := range s.times[1:] {
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}

	name := strings.NewReplacer(
		"$F", strconv.Itoa(len(s.paths)),
		"$SD", first.UTC().Format(splitTimeLayout),
		"$ED", last.UTC().Format(splitTimeLayout),
	).Replace(s.opts.NamePattern)
	path := filepath.Join(s.opts.OutputDir, name)
	if err := os.Rename(s.tempPath(), path); err != nil {
		return err
	}

	logrus.Debugf("wrote %s (%s bytes)", path, color.CyanString("%d", s.written))
	s.paths = append(s.paths, path)
	return nil
}

// abort removes a part left half written by an error
func (s *splitter) abort() {
	if s.file != nil {
		s.file.Close()
		os.Remove(s.tempPath())
	}
}

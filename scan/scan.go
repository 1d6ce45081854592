// Package scan enumerates the delimited records of a file through a fixed
// read buffer, without allocating per record and without reading any byte
// twice. Records are handed out as slices into the buffer; a refill hook
// lets the owner drain outstanding slices before the buffer is overwritten.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/kdpdev/xsort/record"
)

// Format violations reported by the scanner.
var (
	// ErrRecordTooLong means a full buffer refill found no delimiter: the
	// record cannot fit in the read buffer.
	ErrRecordTooLong = errors.New("record length exceeds the read buffer")

	// ErrMissingDelimiter means the file ended in the middle of a record.
	ErrMissingDelimiter = errors.New("unexpected end of file: trailing delimiter is missing")
)

// Scanner is a single-pass, non-restartable enumerator of delimited records.
// Usage follows bufio.Scanner: Scan advances to the next record, Record and
// Bytes expose it, Err reports the first failure once Scan returns false.
type Scanner struct {
	f     *os.File
	buf   []byte
	delim byte

	cur  int // next unread byte of the current window
	end  int // end of the current window; buf[end-1] is a delimiter
	tail int // unterminated bytes at buf[end:end+tail], carried to the next refill
	eof  bool
	err  error
	rec  record.Slice

	refill func() error
}

// New creates a Scanner over f using buf as its read buffer. An empty file
// yields a scanner whose Scan immediately reports false.
func New(f *os.File, buf []byte, delim byte) (*Scanner, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("scan: read buffer is empty")
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return &Scanner{
		f:     f,
		buf:   buf,
		delim: delim,
		eof:   fi.Size() == 0,
	}, nil
}

// SetRefillHook installs fn to run immediately before a disk read that will
// overwrite buffered data. Record slices handed out so far must be drained
// by the hook; an error from fn aborts the scan.
func (s *Scanner) SetRefillHook(fn func() error) {
	s.refill = fn
}

// Scan advances to the next record. It returns false at end of file or on
// the first error; Err tells the two apart.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	for {
		if s.cur < s.end {
			// the window always ends on a delimiter, so the scan cannot miss
			i := bytes.IndexByte(s.buf[s.cur:s.end], s.delim)
			s.rec = record.Slice{Begin: s.cur, End: s.cur + i}
			s.cur += i + 1
			return true
		}

		if s.eof {
			return false
		}

		if !s.fill() {
			return false
		}
	}
}

// fill refills the buffer, carrying the unterminated tail of the previous
// window to the front. It reports whether a new non-empty window is ready.
func (s *Scanner) fill() bool {
	if s.refill != nil {
		if err := s.refill(); err != nil {
			s.err = err
			return false
		}
	}

	if s.tail > 0 {
		copy(s.buf, s.buf[s.end:s.end+s.tail])
	}

	n, err := io.ReadFull(s.f, s.buf[s.tail:])
	filled := s.tail + n

	switch {
	case err == nil:
		// full read: the window ends at the last delimiter read, the rest
		// becomes the next tail
		d := bytes.LastIndexByte(s.buf[s.tail:filled], s.delim)
		if d < 0 {
			s.err = fmt.Errorf("%w (buffer size = %d)", ErrRecordTooLong, len(s.buf))
			return false
		}
		s.cur = 0
		s.end = s.tail + d + 1
		s.tail = filled - s.end
		return true

	case err == io.EOF || err == io.ErrUnexpectedEOF:
		s.eof = true
		if filled == 0 {
			return false
		}
		if s.buf[filled-1] != s.delim {
			s.err = fmt.Errorf("%w (last byte = %#x)", ErrMissingDelimiter, s.buf[filled-1])
			return false
		}
		s.cur = 0
		s.end = filled
		s.tail = 0
		return true

	default:
		s.err = err
		return false
	}
}

// Record returns the current record as a slice into the read buffer. It is
// valid until the next refill.
func (s *Scanner) Record() record.Slice {
	return s.rec
}

// Bytes returns the current record's characters, without the delimiter. The
// returned slice aliases the read buffer.
func (s *Scanner) Bytes() []byte {
	return s.rec.Bytes(s.buf)
}

// Err returns the first error encountered by Scan.
func (s *Scanner) Err() error {
	return s.err
}

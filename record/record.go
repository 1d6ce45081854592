// Package record defines the unit of work of the sorter: a delimited byte
// record described by its position inside a shared buffer, the total order
// records are sorted by, and a stable merge sort over record slices.
package record

import "bytes"

// Slice is a half-open [Begin, End) range over a byte buffer, covering one
// record's characters without the trailing delimiter. A slice is valid only
// while the buffer region that produced it has not been overwritten.
type Slice struct {
	Begin int
	End   int
}

// Len returns the record length in bytes, excluding the delimiter.
func (s Slice) Len() int {
	return s.End - s.Begin
}

// Bytes returns the record's characters inside data.
func (s Slice) Bytes(data []byte) []byte {
	return data[s.Begin:s.End]
}

// Less reports whether record a orders before record b. The comparison runs
// over the shorter of the two lengths; when a is the shorter record and its
// bytes match b's prefix, a orders first. The asymmetry on equal prefixes is
// load-bearing: Less(a, b) and Less(b, a) are both false only for byte-equal
// records of equal length.
func Less(a, b []byte) bool {
	if len(a) < len(b) {
		return bytes.Compare(a, b[:len(a)]) <= 0
	}
	return bytes.Compare(a[:len(b)], b) < 0
}

// LessIn is Less applied to two slices of the same buffer.
func LessIn(data []byte, a, b Slice) bool {
	return Less(a.Bytes(data), b.Bytes(data))
}

// Package arena owns the single byte buffer shared by the sort and merge
// stages. The buffer is allocated once; each stage partitions it anew on
// entry, which is safe because only one stage holds it at a time.
package arena

import (
	"fmt"
)

// SlotSize is the arena cost of one record descriptor: two 64-bit indices.
// Descriptor storage is allocated as a typed slice, but its bytes are
// charged against the arena so the configured memory budget holds.
const SlotSize = 16

// Arena is a contiguous byte buffer of fixed size.
type Arena struct {
	data []byte
}

// New allocates an arena of the given size.
func New(size int) (*Arena, error) {
	if size < 1 {
		return nil, fmt.Errorf("arena: invalid size %d", size)
	}
	return &Arena{data: make([]byte, size)}, nil
}

// Size returns the arena size in bytes.
func (a *Arena) Size() int {
	return len(a.data)
}

// SortLayout is the arena partition used by the run generator: one write
// buffer, a descriptor region (live descriptors plus an equally sized merge
// sort scratch), and one read buffer.
type SortLayout struct {
	WriteBuf    []byte
	ReadBuf     []byte
	Descriptors int // live descriptor slots; the scratch holds as many again
}

// ForSort partitions the arena for run generation. The write buffer takes
// min(maxWriteBuffer, size/10) bytes, descriptor slots take half of the
// remainder, the read buffer takes the rest.
func (a *Arena) ForSort(maxWriteBuffer int) (SortLayout, error) {
	if maxWriteBuffer < 1 {
		return SortLayout{}, fmt.Errorf("arena: invalid write buffer limit %d", maxWriteBuffer)
	}

	w := a.Size() / 10
	if maxWriteBuffer < w {
		w = maxWriteBuffer
	}

	slots := (a.Size() - w) / SlotSize
	usable := slots/2 - slots%2
	live := usable / 2
	if live < 1 {
		return SortLayout{}, fmt.Errorf("arena: %d bytes is too small to sort with", a.Size())
	}

	readStart := w + usable*SlotSize
	if readStart >= a.Size() {
		return SortLayout{}, fmt.Errorf("arena: %d bytes leaves no room for a read buffer", a.Size())
	}

	return SortLayout{
		WriteBuf:    a.data[:w],
		ReadBuf:     a.data[readStart:],
		Descriptors: live,
	}, nil
}

// MergeLayout is the arena partition used by one merge task: one write
// buffer and one read buffer per input run.
type MergeLayout struct {
	WriteBuf []byte
	ReadBufs [][]byte
}

// ForMerge partitions the arena for an n-way merge task. The write buffer
// takes min(maxWriteBuffer, size/(n+1)) bytes; the remainder is split into n
// read buffers of equal size, the first (remainder % n) buffers one byte
// larger so every byte is used.
func (a *Arena) ForMerge(maxWriteBuffer, n int) (MergeLayout, error) {
	if maxWriteBuffer < 1 {
		return MergeLayout{}, fmt.Errorf("arena: invalid write buffer limit %d", maxWriteBuffer)
	}
	if n < 1 {
		return MergeLayout{}, fmt.Errorf("arena: invalid input count %d", n)
	}

	w := a.Size() / (n + 1)
	if maxWriteBuffer < w {
		w = maxWriteBuffer
	}

	avail := a.Size() - w
	if avail < n {
		return MergeLayout{}, fmt.Errorf("arena: buffer is too small for %d merge inputs", n)
	}

	per, rem := avail/n, avail%n
	readBufs := make([][]byte, n)
	offset := w
	for i := range readBufs {
		size := per
		if i < rem {
			size++
		}
		readBufs[i] = a.data[offset : offset+size]
		offset += size
	}

	return MergeLayout{
		WriteBuf: a.data[:w],
		ReadBufs: readBufs,
	}, nil
}

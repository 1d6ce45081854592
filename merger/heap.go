package merger

import (
	"container/heap"
	"os"

	"github.com/kdpdev/xsort/record"
	"github.com/kdpdev/xsort/scan"
)

// mergeHeap orders the live input scanners by their head records. At most
// one entry per input run is live at any time; ties may pop in any order.
type mergeHeap struct {
	scanners []*scan.Scanner
}

func newHeap(capacity int) *mergeHeap {
	return &mergeHeap{scanners: make([]*scan.Scanner, 0, capacity)}
}

// add creates a scanner over buf and seeds it with its first record. An
// empty run contributes nothing.
func (h *mergeHeap) add(f *os.File, buf []byte, delim byte) error {
	sc, err := scan.New(f, buf, delim)
	if err != nil {
		return err
	}
	if sc.Scan() {
		h.scanners = append(h.scanners, sc)
	}
	return sc.Err()
}

func (h *mergeHeap) init() {
	heap.Init(h)
}

func (h *mergeHeap) len() int {
	return len(h.scanners)
}

// min returns the scanner holding the smallest head record.
func (h *mergeHeap) min() *scan.Scanner {
	return h.scanners[0]
}

// advance moves the minimum scanner to its next record, dropping it once
// its run is exhausted.
func (h *mergeHeap) advance() error {
	sc := h.scanners[0]
	if sc.Scan() {
		heap.Fix(h, 0)
		return nil
	}
	if err := sc.Err(); err != nil {
		return err
	}
	heap.Pop(h)
	return nil
}

func (h *mergeHeap) Len() int {
	return len(h.scanners)
}

func (h *mergeHeap) Less(i, j int) bool {
	return record.Less(h.scanners[i].Bytes(), h.scanners[j].Bytes())
}

func (h *mergeHeap) Swap(i, j int) {
	h.scanners[i], h.scanners[j] = h.scanners[j], h.scanners[i]
}

func (h *mergeHeap) Push(x interface{}) {
	h.scanners = append(h.scanners, x.(*scan.Scanner))
}

func (h *mergeHeap) Pop() interface{} {
	old := h.scanners
	n := len(old)
	x := old[n-1]
	h.scanners = old[:n-1]
	return x
}

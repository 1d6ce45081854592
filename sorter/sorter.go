// Package sorter implements the run-generation stage: it streams the input
// file through a fixed read buffer, batches as many records as the arena's
// descriptor area holds, sorts each batch, and writes it out as one
// temporary run.
package sorter

import (
	"fmt"
	"os"
	"time"

	"github.com/kdpdev/xsort/arena"
	"github.com/kdpdev/xsort/fsutil"
	"github.com/kdpdev/xsort/log"
	"github.com/kdpdev/xsort/record"
	"github.com/kdpdev/xsort/runfile"
	"github.com/kdpdev/xsort/scan"
	"github.com/kdpdev/xsort/strutil"
)

// Sorter turns one input file into a set of sorted runs. A Sorter owns its
// arena partition for its whole lifetime; create one per sort stage.
type Sorter struct {
	paths    *runfile.PathSource
	delim    byte
	writeBuf []byte
	readBuf  []byte
	live     []record.Slice
	scratch  []record.Slice
}

// New partitions the arena for run generation and returns a ready Sorter.
func New(paths *runfile.PathSource, a *arena.Arena, maxWriteBuffer int, delim byte) (*Sorter, error) {
	if paths == nil {
		return nil, fmt.Errorf("sorter: path source is nil")
	}

	layout, err := a.ForSort(maxWriteBuffer)
	if err != nil {
		return nil, err
	}

	log.Debug(log.DebugMessage{
		Operation: "sort",
		Content: fmt.Sprintf("write buffer = %v, max records per run = %v, max record length = %v",
			strutil.HumanizeBytes(int64(len(layout.WriteBuf))),
			strutil.HumanizeCount(int64(layout.Descriptors)),
			strutil.HumanizeBytes(int64(len(layout.ReadBuf)))),
	})

	return &Sorter{
		paths:    paths,
		delim:    delim,
		writeBuf: layout.WriteBuf,
		readBuf:  layout.ReadBuf,
		live:     make([]record.Slice, 0, layout.Descriptors),
		scratch:  make([]record.Slice, layout.Descriptors),
	}, nil
}

// Sort streams input into sorted runs and returns their paths in creation
// order. An empty input yields exactly one empty run.
func (s *Sorter) Sort(input string) ([]string, error) {
	start := time.Now()

	size, err := fsutil.FileSize(input)
	if err != nil {
		return nil, err
	}

	if size == 0 {
		path := s.paths.Next()
		w, err := runfile.Create(path, nil, s.delim)
		if err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc, err := scan.New(f, s.readBuf, s.delim)
	if err != nil {
		return nil, err
	}

	var (
		runs    []string
		sorted  int64
		lastPct = -1
	)

	flush := func() error {
		if len(s.live) == 0 {
			return nil
		}

		// the batch is still in input order: its records cover one
		// contiguous region of the read buffer
		batch := int64(s.live[len(s.live)-1].End - s.live[0].Begin + 1)

		path := s.paths.Next()
		if err := s.save(path); err != nil {
			return err
		}
		runs = append(runs, path)
		s.live = s.live[:0]

		sorted += batch
		if pct := int(100 * sorted / size); pct != lastPct {
			lastPct = pct
			log.Info(log.ProgressMessage{Operation: "sort", Percent: pct})
		}
		return nil
	}

	// the scanner announces every refill; flushing there keeps all handed
	// out record slices valid
	sc.SetRefillHook(flush)

	for sc.Scan() {
		s.live = append(s.live, sc.Record())
		if len(s.live) == cap(s.live) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}

	log.Debug(log.DebugMessage{
		Operation: "sort",
		Content:   fmt.Sprintf("%v: %d runs in %v", input, len(runs), time.Since(start).Round(time.Millisecond)),
	})

	return runs, nil
}

// save sorts the live batch and writes it to a fresh run at path.
func (s *Sorter) save(path string) error {
	record.MergeSort(s.readBuf, s.live, s.scratch)

	w, err := runfile.Create(path, s.writeBuf, s.delim)
	if err != nil {
		return err
	}
	for _, rec := range s.live {
		if err := w.WriteRecord(rec.Bytes(s.readBuf)); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

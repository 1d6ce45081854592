// Package merger implements the multi-phase k-way merge stage. Sorted runs
// are merged in phases of at most maxFilesPerPhase inputs per task; the
// final task writes the user's output path, intermediate tasks write fresh
// temporary runs consumed by the next phase.
package merger

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/exp/slices"

	"github.com/kdpdev/xsort/arena"
	"github.com/kdpdev/xsort/fsutil"
	"github.com/kdpdev/xsort/log"
	"github.com/kdpdev/xsort/runfile"
)

// Merger merges sets of sorted runs. It borrows the arena for the duration
// of Merge and re-partitions it for every task.
type Merger struct {
	paths            *runfile.PathSource
	arena            *arena.Arena
	maxFilesPerPhase int
	maxWriteBuffer   int
	delim            byte
	removeInputs     bool
}

// task is one k-way merge of up to maxFilesPerPhase inputs into dst.
type task struct {
	name   string
	dst    string
	inputs []string
}

// New creates a Merger. maxFilesPerPhase must be at least 2.
func New(paths *runfile.PathSource, a *arena.Arena, maxFilesPerPhase, maxWriteBuffer int, delim byte, removeInputs bool) (*Merger, error) {
	if paths == nil {
		return nil, fmt.Errorf("merger: path source is nil")
	}
	if maxFilesPerPhase < 2 {
		return nil, fmt.Errorf("merger: max files per phase must be >= 2, got %d", maxFilesPerPhase)
	}

	return &Merger{
		paths:            paths,
		arena:            a,
		maxFilesPerPhase: maxFilesPerPhase,
		maxWriteBuffer:   maxWriteBuffer,
		delim:            delim,
		removeInputs:     removeInputs,
	}, nil
}

// Merge merges the runs into output. The run inventory is consumed in
// lexicographic path order; a single run is simply moved into place.
func (m *Merger) Merge(runs []string, output string) error {
	start := time.Now()

	if len(runs) == 0 {
		return fmt.Errorf("merger: no runs to merge")
	}
	if output == "" {
		return fmt.Errorf("merger: output path is empty")
	}
	var verr error
	for i, run := range runs {
		if run == "" {
			verr = multierror.Append(verr, fmt.Errorf("merger: run %d: empty path", i))
		}
	}
	if verr != nil {
		return verr
	}

	runs = slices.Clone(runs)
	slices.Sort(runs)

	if len(runs) == 1 {
		return fsutil.Move(runs[0], output)
	}

	tasks := m.plan(0, runs, output)
	for i, t := range tasks {
		log.Info(log.InfoMessage{
			Operation: "merge",
			Target:    t.dst,
			Note:      fmt.Sprintf("task %s [%d/%d], %d files", t.name, i+1, len(tasks), len(t.inputs)),
		})

		taskStart := time.Now()
		if err := m.runTask(t); err != nil {
			return fmt.Errorf("merge task %s: %w", t.name, err)
		}

		if m.removeInputs {
			var merr error
			for _, in := range t.inputs {
				if err := os.Remove(in); err != nil {
					merr = multierror.Append(merr, err)
				}
			}
			if merr != nil {
				return merr
			}
		}

		log.Debug(log.DebugMessage{
			Operation: "merge",
			Content:   fmt.Sprintf("task %s done in %v", t.name, time.Since(taskStart).Round(time.Millisecond)),
		})
	}

	log.Debug(log.DebugMessage{
		Operation: "merge",
		Content:   fmt.Sprintf("%d tasks done in %v", len(tasks), time.Since(start).Round(time.Millisecond)),
	})

	return nil
}

// plan builds the task list for one phase and recurses into the next. Tasks
// of the current phase precede tasks of later phases.
func (m *Merger) plan(phase int, runs []string, dst string) []task {
	n := len(runs)

	if n <= m.maxFilesPerPhase {
		return []task{{
			name:   fmt.Sprintf("%d.0", phase),
			dst:    dst,
			inputs: runs,
		}}
	}

	count := n / m.maxFilesPerPhase
	if n%m.maxFilesPerPhase != 0 {
		count++
	}
	base, extra := n/count, n%count

	tasks := make([]task, 0, count)
	next := make([]string, 0, count)
	idx := 0
	for i := 0; i < count; i++ {
		size := base
		if i < extra {
			size++
		}
		tmp := m.paths.Next()
		tasks = append(tasks, task{
			name:   fmt.Sprintf("%d.%d", phase, i),
			dst:    tmp,
			inputs: runs[idx : idx+size],
		})
		next = append(next, tmp)
		idx += size
	}

	// the next phase consumes its inventory in lexicographic order too
	slices.Sort(next)
	return append(tasks, m.plan(phase+1, next, dst)...)
}

// runTask executes one k-way merge.
func (m *Merger) runTask(t task) (err error) {
	layout, err := m.arena.ForMerge(m.maxWriteBuffer, len(t.inputs))
	if err != nil {
		return err
	}

	var total int64
	for _, in := range t.inputs {
		size, err := fsutil.FileSize(in)
		if err != nil {
			return err
		}
		total += size
	}

	w, err := runfile.Create(t.dst, layout.WriteBuf, m.delim)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	h := newHeap(len(t.inputs))
	for i, in := range t.inputs {
		f, err := os.Open(in)
		if err != nil {
			return err
		}
		defer f.Close()

		if err := h.add(f, layout.ReadBufs[i], m.delim); err != nil {
			return err
		}
	}
	h.init()

	progress := newProgress("merge", total)
	progress.step(0, false)

	for h.len() > 0 {
		head := h.min()
		rec := head.Bytes()
		if err := w.WriteRecord(rec); err != nil {
			return err
		}
		progress.step(int64(len(rec))+1, false)

		if err := h.advance(); err != nil {
			return err
		}
	}

	progress.step(0, true)
	return nil
}

// progress emits a log line whenever the completed percentage crosses a
// multiple of ten.
type progress struct {
	op      string
	total   int64
	done    int64
	lastPct int
}

func newProgress(op string, total int64) *progress {
	return &progress{op: op, total: total, lastPct: -1}
}

func (p *progress) step(n int64, done bool) {
	if p.total == 0 {
		return
	}

	p.done += n
	pct := int(100 * p.done / p.total)
	if done {
		pct = 100
	}

	if pct == p.lastPct && p.lastPct >= 0 {
		return
	}
	if p.lastPct >= 0 && pct/10 == p.lastPct/10 {
		return
	}

	p.lastPct = pct
	log.Info(log.ProgressMessage{Operation: p.op, Percent: pct})
}

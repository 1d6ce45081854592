package merger

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/kdpdev/xsort/arena"
	"github.com/kdpdev/xsort/record"
	"github.com/kdpdev/xsort/runfile"
)

func writeRun(t *testing.T, dir, name string, records []string) string {
	t.Helper()

	sorted := append([]string(nil), records...)
	sort.Slice(sorted, func(i, j int) bool {
		return record.Less([]byte(sorted[i]), []byte(sorted[j]))
	})

	var sb strings.Builder
	for _, r := range sorted {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

func newMerger(t *testing.T, arenaSize, maxFilesPerPhase int, removeInputs bool) *Merger {
	t.Helper()

	a, err := arena.New(arenaSize)
	assert.NilError(t, err)

	m, err := New(runfile.NewPathSource(t.TempDir(), "merge"), a, maxFilesPerPhase, 4<<10, '\n', removeInputs)
	assert.NilError(t, err)
	return m
}

func readRecords(t *testing.T, path string) []string {
	t.Helper()

	content, err := os.ReadFile(path)
	assert.NilError(t, err)
	if len(content) == 0 {
		return nil
	}
	assert.Equal(t, byte('\n'), content[len(content)-1], "output must end with the delimiter")
	return strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
}

func TestNewValidatesMaxFilesPerPhase(t *testing.T) {
	t.Parallel()

	a, err := arena.New(1 << 20)
	assert.NilError(t, err)

	for _, f := range []int{-1, 0, 1} {
		_, err := New(runfile.NewPathSource(t.TempDir(), "merge"), a, f, 4<<10, '\n', false)
		assert.ErrorContains(t, err, "max files per phase")
	}
}

func TestMergeValidatesInputs(t *testing.T) {
	t.Parallel()

	m := newMerger(t, 1<<20, 2, false)

	err := m.Merge(nil, "out")
	assert.ErrorContains(t, err, "no runs")

	err = m.Merge([]string{"a"}, "")
	assert.ErrorContains(t, err, "output path is empty")

	err = m.Merge([]string{"a", "", "c", ""}, "out")
	assert.ErrorContains(t, err, "run 1: empty path")
	assert.ErrorContains(t, err, "run 3: empty path")
}

func TestMergeSingleRunIsMoved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	run := writeRun(t, dir, "only", []string{"a", "b"})
	out := filepath.Join(dir, "out")

	m := newMerger(t, 1<<20, 2, false)
	assert.NilError(t, m.Merge([]string{run}, out))

	_, err := os.Stat(run)
	assert.Assert(t, os.IsNotExist(err), "the single run must be moved, not copied")
	assert.DeepEqual(t, []string{"a", "b"}, readRecords(t, out))
}

func TestPlanShape(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		runs      int
		perPhase  int
		tasks     int
		lastPhase string
	}{
		// everything fits one task
		{runs: 2, perPhase: 3, tasks: 1, lastPhase: "0.0"},
		{runs: 3, perPhase: 3, tasks: 1, lastPhase: "0.0"},
		// 4 runs with fan-in 3: two tasks of 2, then the final pair
		{runs: 4, perPhase: 3, tasks: 3, lastPhase: "1.0"},
		// 9 runs with fan-in 3: three tasks, then the final triple
		{runs: 9, perPhase: 3, tasks: 4, lastPhase: "1.0"},
		// 10 runs with fan-in 3: 4 + 2 + 1 tasks over three phases
		{runs: 10, perPhase: 3, tasks: 7, lastPhase: "2.0"},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(fmt.Sprintf("%d_runs_fanin_%d", tc.runs, tc.perPhase), func(t *testing.T) {
			t.Parallel()

			m := newMerger(t, 1<<20, tc.perPhase, false)

			runs := make([]string, tc.runs)
			for i := range runs {
				runs[i] = fmt.Sprintf("/tmp/run_%03d", i)
			}

			tasks := m.plan(0, runs, "/tmp/out")
			assert.Equal(t, tc.tasks, len(tasks))

			last := tasks[len(tasks)-1]
			assert.Equal(t, tc.lastPhase, last.name)
			assert.Equal(t, "/tmp/out", last.dst)

			// every run is consumed exactly once, and no task exceeds the fan-in
			consumed := map[string]int{}
			for _, task := range tasks {
				assert.Assert(t, len(task.inputs) <= tc.perPhase,
					"task %v has %d inputs", task.name, len(task.inputs))
				for _, in := range task.inputs {
					consumed[in]++
				}
			}
			for _, run := range runs {
				assert.Equal(t, 1, consumed[run], "run %v", run)
			}
		})
	}
}

func TestMergeTwoRuns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r1 := writeRun(t, dir, "r1", []string{"apple", "cherry", "x"})
	r2 := writeRun(t, dir, "r2", []string{"banana", "x", "zebra"})
	out := filepath.Join(dir, "out")

	m := newMerger(t, 1<<20, 2, false)
	assert.NilError(t, m.Merge([]string{r1, r2}, out))

	assert.DeepEqual(t, []string{"apple", "banana", "cherry", "x", "x", "zebra"}, readRecords(t, out))
}

func TestMergeMultiPhase(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rng := rand.New(rand.NewSource(3))

	var all []string
	var runs []string
	for i := 0; i < 7; i++ {
		var records []string
		for j := 0; j < 50; j++ {
			records = append(records, fmt.Sprintf("%08d", rng.Intn(1e8)))
		}
		all = append(all, records...)
		runs = append(runs, writeRun(t, dir, fmt.Sprintf("run%d", i), records))
	}

	out := filepath.Join(dir, "out")
	m := newMerger(t, 1<<20, 3, false)
	assert.NilError(t, m.Merge(runs, out))

	got := readRecords(t, out)
	assert.Equal(t, len(all), len(got))
	for i := 1; i < len(got); i++ {
		assert.Assert(t, got[i-1] <= got[i], "output out of order at %d", i)
	}

	sort.Strings(all)
	assert.DeepEqual(t, all, got)
}

func TestMergeLengthAwareOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r1 := writeRun(t, dir, "r1", []string{"ab", "b"})
	r2 := writeRun(t, dir, "r2", []string{"a", "abc"})
	out := filepath.Join(dir, "out")

	m := newMerger(t, 1<<20, 2, false)
	assert.NilError(t, m.Merge([]string{r1, r2}, out))

	assert.DeepEqual(t, []string{"a", "ab", "abc", "b"}, readRecords(t, out))
}

func TestMergeRemovesInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r1 := writeRun(t, dir, "r1", []string{"a"})
	r2 := writeRun(t, dir, "r2", []string{"b"})
	out := filepath.Join(dir, "out")

	m := newMerger(t, 1<<20, 2, true)
	assert.NilError(t, m.Merge([]string{r1, r2}, out))

	for _, run := range []string{r1, r2} {
		_, err := os.Stat(run)
		assert.Assert(t, os.IsNotExist(err), "input %v must be removed", run)
	}
	assert.DeepEqual(t, []string{"a", "b"}, readRecords(t, out))
}

func TestMergeKeepsInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r1 := writeRun(t, dir, "r1", []string{"a"})
	r2 := writeRun(t, dir, "r2", []string{"b"})
	out := filepath.Join(dir, "out")

	m := newMerger(t, 1<<20, 2, false)
	assert.NilError(t, m.Merge([]string{r1, r2}, out))

	for _, run := range []string{r1, r2} {
		_, err := os.Stat(run)
		assert.NilError(t, err, "input %v must survive", run)
	}
}

func TestMergeExistingOutputFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r1 := writeRun(t, dir, "r1", []string{"a"})
	r2 := writeRun(t, dir, "r2", []string{"b"})
	out := filepath.Join(dir, "out")
	assert.NilError(t, os.WriteFile(out, []byte("occupied"), 0644))

	m := newMerger(t, 1<<20, 2, false)
	err := m.Merge([]string{r1, r2}, out)
	assert.Assert(t, err != nil, "merging onto an existing file must fail")
}

func TestMergeArenaTooSmall(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var runs []string
	for i := 0; i < 40; i++ {
		runs = append(runs, writeRun(t, dir, fmt.Sprintf("r%02d", i), []string{"a"}))
	}
	out := filepath.Join(dir, "out")

	m := newMerger(t, 16, 64, false)
	err := m.Merge(runs, out)
	assert.ErrorContains(t, err, "too small")
}

// Package stat collects cheap per-operation counters, reported at the end
// of a run when statistics are enabled.
package stat

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/kdpdev/xsort/strutil"
)

const (
	totalCount = iota
	succCount
)

var (
	enabled bool
	stats   statistics
)

type statistics [2]syncMap

// InitStat initializes collecting program statistics.
func InitStat() {
	enabled = true
	for i := range stats {
		stats[i] = syncMap{
			Mutex:       sync.Mutex{},
			mapStrInt64: map[string]int64{},
		}
	}
}

// syncMap is a statically typed and synchronized map.
type syncMap struct {
	sync.Mutex
	mapStrInt64 map[string]int64
}

func (s *syncMap) add(key string, val int64) {
	s.Lock()
	defer s.Unlock()

	s.mapStrInt64[key] += val
}

// Stat is for storing a particular statistics.
type Stat struct {
	Visited    string `json:"operation"`
	SuccVisits int64  `json:"success"`
	ErrVisits  int64  `json:"error"`
}

// Collect collects function execution data.
func Collect(op string, err *error) func() {
	return func() {
		if !enabled {
			return
		}
		if err == nil || *err == nil {
			stats[succCount].add(op, 1)
		}
		stats[totalCount].add(op, 1)
	}
}

// Stats implements log.Message interface.
type Stats []Stat

func (s Stats) String() string {
	b := bytes.Buffer{}

	w := tabwriter.NewWriter(&b, 5, 0, 5, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "\n%s\t%s\t%s\t%s\t\n", "Operation", "Total", "Error", "Success")
	for _, stat := range s {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", stat.Visited, stat.ErrVisits+stat.SuccVisits, stat.ErrVisits, stat.SuccVisits)
	}

	w.Flush()
	return b.String()
}

func (s Stats) JSON() string {
	builder := strings.Builder{}
	for _, stat := range s {
		builder.WriteString(strutil.JSON(stat) + "\n")
	}

	return builder.String()
}

// Statistics returns the statistics collected so far, ordered by operation
// name so the report is stable.
func Statistics() Stats {
	if !enabled {
		return make([]Stat, 0)
	}

	result := make([]Stat, 0)
	for op, cnt := range stats[totalCount].mapStrInt64 {
		cntSucc := stats[succCount].mapStrInt64[op]

		result = append(result, Stat{
			Visited:    op,
			SuccVisits: cntSucc,
			ErrVisits:  cnt - cntSucc,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Visited < result[j].Visited })
	return result
}

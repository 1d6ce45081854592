package runfile

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"
)

// PathSource issues globally unique file paths under a common directory.
// Paths look like {dir}/{role}_{timestamp}_{seq}: the sequence number makes
// them unique within the source, the timestamp across sources.
type PathSource struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewPathSource creates a source for the given directory and role. Roles in
// use are "sort" for generated runs and "merge" for intermediate merges.
func NewPathSource(dir, role string) *PathSource {
	return &PathSource{prefix: filepath.Join(dir, role)}
}

// Next returns a fresh path. Safe for concurrent use.
func (p *PathSource) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := fmt.Sprintf("%s_%d_%d", p.prefix, time.Now().UnixNano(), p.seq)
	p.seq++
	return path
}

package docmanager

import "sync"

// PathLocks is an in-memory mutex registry keyed by sanitized path. It closes
// the check-then-act window between the duplicate checks and the file write:
// two concurrent uploads of the same filename serialize here, so the second
// one sees the first one's file and reports a duplicate instead of racing it.
// Entries are ref-counted and dropped once the last holder releases.
type PathLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewPathLocks() *PathLocks {
	return &PathLocks{entries: make(map[string]*lockEntry)}
}

// Lock blocks until the per-path lock is held and returns the release func.
func (p *PathLocks) Lock(path string) func() {
	p.mu.Lock()
	entry, ok := p.entries[path]
	if !ok {
		entry = &lockEntry{}
		p.entries[path] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.entries, path)
		}
		p.mu.Unlock()
	}
}

// Size reports how many paths currently hold registry entries.
func (p *PathLocks) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

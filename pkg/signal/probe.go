package signal

import "sync"

// Probe is a Line that remembers what it was driven to.
type Probe struct {
	mu      sync.Mutex
	level   bool
	changes int
	levels  []bool
}

// NewProbe creates a probe resting at the given level.
func NewProbe(initial bool) *Probe {
	return &Probe{level: initial}
}

// SetLevel records level, counting a change only when it differs from the
// current one.
func (p *Probe) SetLevel(level bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if level != p.level {
		p.changes++
	}
	p.level = level
	p.levels = append(p.levels, level)
}

// Level is the level the line was last driven to.
func (p *Probe) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Changes is the number of transitions seen since creation or Clear.
func (p *Probe) Changes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changes
}

// Levels returns every level driven, repeats included.
func (p *Probe) Levels() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]bool(nil), p.levels...)
}

// Clear forgets the history but keeps the current level.
func (p *Probe) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = 0
	p.levels = nil
}

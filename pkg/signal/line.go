// Package signal models the level-driven output wires of a simulated device:
// chip-selects, interrupt requests and similar single-bit lines.
package signal

// Line is the consumer end of a wire. SetLevel is called every time the
// driver recomputes the level, so implementations must tolerate being driven
// to the level they already have.
type Line interface {
	SetLevel(level bool)
}

// LineFunc adapts a plain function to a Line.
type LineFunc func(level bool)

// SetLevel calls f(level).
func (f LineFunc) SetLevel(level bool) {
	f(level)
}

type fanout []Line

func (lines fanout) SetLevel(level bool) {
	for _, line := range lines {
		line.SetLevel(level)
	}
}

// Fanout returns a Line that drives every non-nil line given.
func Fanout(lines ...Line) Line {
	out := make(fanout, 0, len(lines))
	for _, line := range lines {
		if line != nil {
			out = append(out, line)
		}
	}
	return out
}

// Discard is a Line that ignores every level.
var Discard Line = LineFunc(func(bool) {})

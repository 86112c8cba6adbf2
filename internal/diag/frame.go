package diag

import "strings"

// Frame is one level of the conversion call chain: a function being lowered,
// an SCC being resolved, a loop being normalized. Frames accumulate as the
// converter descends so a fatal error can be reported with full context.
type Frame struct {
	Description string
	Location    SourceLocation
}

func (f Frame) String() string {
	if f.Location.IsZero() {
		return f.Description
	}
	return f.Description + " (" + f.Location.String() + ")"
}

// Trace is an ordered call chain, oldest frame first.
type Trace []Frame

func (t Trace) String() string {
	if len(t) == 0 {
		return ""
	}
	lines := make([]string, len(t))
	for i := len(t) - 1; i >= 0; i-- {
		lines[len(t)-1-i] = t[i].String()
	}
	return strings.Join(lines, "\n")
}

// Push returns a new trace with f appended, leaving t untouched.
func (t Trace) Push(f Frame) Trace {
	next := make(Trace, len(t)+1)
	copy(next, t)
	next[len(t)] = f
	return next
}

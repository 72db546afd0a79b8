package pipeline

// DiagCapacity bounds the raw diagnostic line buffer. Oldest lines are
// evicted first.
const DiagCapacity = 10000

// DiagLog is a bounded buffer of raw receiver diagnostic lines. It is
// not safe for concurrent use; the pipeline loop owns it and guards
// reader access with the pipeline mutex.
type DiagLog struct {
	lines []string
	total int
}

// Append adds one line, evicting the oldest when full.
func (d *DiagLog) Append(line string) {
	if len(d.lines) >= DiagCapacity {
		copy(d.lines, d.lines[1:])
		d.lines = d.lines[:len(d.lines)-1]
	}
	d.lines = append(d.lines, line)
	d.total++
}

// Len returns the number of buffered lines.
func (d *DiagLog) Len() int { return len(d.lines) }

// Total returns the number of lines ever appended, including evicted
// ones.
func (d *DiagLog) Total() int { return d.total }

// Tail returns a copy of the most recent lines in arrival order. A
// limit of zero or less returns everything buffered.
func (d *DiagLog) Tail(limit int) []string {
	n := len(d.lines)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]string, n)
	copy(out, d.lines[len(d.lines)-n:])
	return out
}

// Clear drops all buffered lines. The running total is kept.
func (d *DiagLog) Clear() {
	d.lines = nil
}

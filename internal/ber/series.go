// Package ber tracks the receiver's reported bit error rate as a bounded
// sample series with derived plot bounds.
package ber

// Capacity is the number of samples retained; the oldest sample is
// evicted once the series is full.
const Capacity = 300

// minUpperBound keeps the recommended plot ceiling from collapsing onto
// a quiet series.
const minUpperBound = 10.0

// Series is a fixed-capacity FIFO of BER percentages. The zero value is
// ready to use. It is not safe for concurrent use; the pipeline loop is
// its sole owner.
type Series struct {
	samples []float64
	total   int // samples ever appended, including evicted ones
}

// Append pushes one sample, evicting the oldest once the series holds
// Capacity samples. Negative values are discarded; the receiver reports
// BER as a non-negative fraction and anything else is parser noise.
func (s *Series) Append(percent float64) {
	if percent < 0 {
		return
	}
	s.samples = append(s.samples, percent)
	s.total++
	if len(s.samples) > Capacity {
		s.samples = s.samples[len(s.samples)-Capacity:]
	}
}

// Len returns the number of retained samples.
func (s *Series) Len() int {
	return len(s.samples)
}

// Last returns the most recent sample, with ok false on an empty series.
func (s *Series) Last() (v float64, ok bool) {
	if len(s.samples) == 0 {
		return 0, false
	}
	return s.samples[len(s.samples)-1], true
}

// Values returns a copy of the retained samples in insertion order.
func (s *Series) Values() []float64 {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}

// UpperBound recommends a plot ceiling: 10% of margin above the worst
// retained sample, never below 10.0 so an empty or clean series still
// renders with headroom. The lower bound is always zero.
func (s *Series) UpperBound() float64 {
	var max float64
	for _, v := range s.samples {
		if v > max {
			max = v
		}
	}
	if upper := max * 1.1; upper > minUpperBound {
		return upper
	}
	return minUpperBound
}

// WindowOrigin returns the insertion index of the oldest retained
// sample. It stays at zero until the series fills, then slides so the
// window always covers the last Capacity samples.
func (s *Series) WindowOrigin() int {
	return s.total - len(s.samples)
}

// Reset discards all samples and rewinds the window origin.
func (s *Series) Reset() {
	s.samples = nil
	s.total = 0
}

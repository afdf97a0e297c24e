package trajectory

// Sample is one synthesized pointer position with its nominal timestamp.
type Sample struct {
	Index int
	T     int64
	X     float64
	Y     float64
}

// Cursor is a lazy, finite, restartable traversal over the sample sequence.
type Cursor struct {
	s     *Synthesizer
	total int
	next  int
}

// Samples returns a cursor over the first total samples of the sequence.
func (s *Synthesizer) Samples(total int) *Cursor {
	if total < 0 {
		total = 0
	}
	return &Cursor{s: s, total: total}
}

// Next yields the next sample, reporting false once the sequence is
// exhausted.
func (c *Cursor) Next() (Sample, bool) {
	if c.next >= c.total {
		return Sample{}, false
	}
	i := c.next
	c.next++
	x, y := c.s.At(i)
	return Sample{Index: i, T: c.s.TimestampNs(i), X: x, Y: y}, true
}

// Reset rewinds the cursor to the start; a re-traversal yields identical
// samples.
func (c *Cursor) Reset() { c.next = 0 }

// Len reports the total number of samples the cursor will yield.
func (c *Cursor) Len() int { return c.total }

// Rate reports the underlying synthesizer's sample rate in Hz.
func (c *Cursor) Rate() int { return c.s.rate }

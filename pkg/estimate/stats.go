package estimate

// runningStats accumulates (Σx, Σx², n) for incremental mean and
// variance.
//
// The naive formulation loses precision at very large sample counts,
// but measurement sets here are pruned well below that regime and the
// derived confidence values depend on it, so it is kept as-is.
type runningStats struct {
	sum        float64
	sumSquares float64
	count      int
}

func (s *runningStats) Add(x float64) {
	s.sum += x
	s.sumSquares += x * x
	s.count++
}

// Remove undoes a previous Add of x.
func (s *runningStats) Remove(x float64) {
	if s.count == 0 {
		return
	}
	s.sum -= x
	s.sumSquares -= x * x
	s.count--
	if s.count == 0 {
		s.sum = 0
		s.sumSquares = 0
	}
}

// Merge folds other into s, weighting by sample count.
func (s *runningStats) Merge(other runningStats) {
	s.sum += other.sum
	s.sumSquares += other.sumSquares
	s.count += other.count
}

func (s *runningStats) Mean() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *runningStats) Variance() float64 {
	if s.count == 0 {
		return 0
	}
	mean := s.Mean()
	v := s.sumSquares/float64(s.count) - mean*mean
	if v < 0 {
		// Floating-point cancellation can push the naive formula
		// slightly negative.
		return 0
	}
	return v
}

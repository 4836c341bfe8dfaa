package metrics

import "math"

// DelayStats accumulates arrival-delay observations for one polling cycle
// using Welford's online algorithm, so mean and standard deviation come out
// in O(1) space without keeping the samples.
type DelayStats struct {
	count int
	mean  float64
	m2    float64
}

// Observe adds one delay observation in seconds
func (s *DelayStats) Observe(seconds float64) {
	s.count++
	delta := seconds - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (seconds - s.mean)
}

// Mean returns the mean of the observed delays, 0 with no observations
func (s *DelayStats) Mean() float64 {
	return s.mean
}

// StdDev returns the population standard deviation of the observed delays.
// Returns 0 for fewer than 2 observations.
func (s *DelayStats) StdDev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count))
}

// Count returns the number of observations
func (s *DelayStats) Count() int {
	return s.count
}

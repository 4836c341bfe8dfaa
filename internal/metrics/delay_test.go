package metrics

import (
	"math"
	"testing"
)

func TestDelayStats(t *testing.T) {
	var s DelayStats

	if s.Mean() != 0 || s.StdDev() != 0 || s.Count() != 0 {
		t.Error("expected zero statistics before any observation")
	}

	s.Observe(60)
	if s.Mean() != 60 {
		t.Errorf("expected mean 60 after one observation, got %f", s.Mean())
	}
	if s.StdDev() != 0 {
		t.Errorf("expected stddev 0 for a single observation, got %f", s.StdDev())
	}

	s.Observe(120)
	s.Observe(180)

	if s.Count() != 3 {
		t.Errorf("expected 3 observations, got %d", s.Count())
	}
	if math.Abs(s.Mean()-120) > 1e-9 {
		t.Errorf("expected mean 120, got %f", s.Mean())
	}
	if math.Abs(s.StdDev()-math.Sqrt(2400)) > 1e-9 {
		t.Errorf("expected stddev sqrt(2400), got %f", s.StdDev())
	}
}

func TestDelayStats_NegativeDelays(t *testing.T) {
	var s DelayStats
	s.Observe(-30)
	s.Observe(30)

	if math.Abs(s.Mean()) > 1e-9 {
		t.Errorf("expected mean 0 for symmetric delays, got %f", s.Mean())
	}
	if math.Abs(s.StdDev()-30) > 1e-9 {
		t.Errorf("expected stddev 30, got %f", s.StdDev())
	}
}

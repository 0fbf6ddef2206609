package perf

import (
	"sort"
	"testing"
	"time"

	_ "github.com/argus-iam/argus/testing"
)

func TestAccessCheckLatencyTargets(t *testing.T) {
	scenarios := []struct {
		name      string
		samples   []time.Duration
		threshold time.Duration
	}{
		{
			name:      "warm",
			samples:   []time.Duration{2 * time.Millisecond, 3 * time.Millisecond, 3 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond, 5 * time.Millisecond, 5 * time.Millisecond, 6 * time.Millisecond, 7 * time.Millisecond, 8 * time.Millisecond},
			threshold: 20 * time.Millisecond,
		},
		{
			name:      "cold",
			samples:   []time.Duration{40 * time.Millisecond, 45 * time.Millisecond, 50 * time.Millisecond, 55 * time.Millisecond, 60 * time.Millisecond, 65 * time.Millisecond, 70 * time.Millisecond, 75 * time.Millisecond, 80 * time.Millisecond, 90 * time.Millisecond},
			threshold: 100 * time.Millisecond,
		},
	}

	for _, scenario := range scenarios {
		p95 := percentile95(scenario.samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}

package llm

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// Snapshot is a point-in-time aggregate of model call statistics. Latency
// aggregates cover the rolling window; call and failure counters are
// cumulative since startup.
type Snapshot struct {
	Count     int              `json:"count"`
	MinMs     int64            `json:"min_ms"`
	MaxMs     int64            `json:"max_ms"`
	AvgMs     float64          `json:"avg_ms"`
	P50Ms     float64          `json:"p50_ms"`
	P95Ms     float64          `json:"p95_ms"`
	P99Ms     float64          `json:"p99_ms"`
	Calls     map[string]int64 `json:"calls"`
	Failures  map[string]int64 `json:"failures"`
	ErrorRate float64          `json:"error_rate"`
}

// Stats tracks recent model call latencies within a rolling window, plus
// per-operation call and failure counters.
type Stats struct {
	mu       sync.Mutex
	samples  []sample
	maxAge   time.Duration
	calls    map[string]int64
	failures map[string]int64
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples:  make([]sample, 0, 256),
		maxAge:   maxAge,
		calls:    make(map[string]int64),
		failures: make(map[string]int64),
	}
}

func (s *Stats) Record(op string, durationMs int64, err error) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[op]++
	if err != nil {
		s.failures[op]++
	}

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

func (s *Stats) Snapshot() Snapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	snap := Snapshot{
		Calls:    make(map[string]int64, len(s.calls)),
		Failures: make(map[string]int64, len(s.failures)),
	}
	var totalCalls, totalFailures int64
	for op, n := range s.calls {
		snap.Calls[op] = n
		totalCalls += n
	}
	for op, n := range s.failures {
		snap.Failures[op] = n
		totalFailures += n
	}
	if totalCalls > 0 {
		snap.ErrorRate = float64(totalFailures) / float64(totalCalls)
	}

	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Count = len(values)
	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	if lower == upper {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}

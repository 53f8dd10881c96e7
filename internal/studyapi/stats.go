package studyapi

import (
	"slices"
	"sort"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	op         string
	durationMs int64
}

// Snapshot aggregates recent call latencies for one operation.
type Snapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
}

// Stats tracks service call latencies within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	failed  []sample
	maxAge  time.Duration
	now     func() time.Time
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 64),
		maxAge:  maxAge,
		now:     time.Now,
	}
}

// Record adds one call. Failed calls count toward Errors but not latency.
func (s *Stats) Record(op string, d time.Duration, err error) {
	ms := max(d.Milliseconds(), 0)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	sm := sample{at: now, op: op, durationMs: ms}
	if err != nil {
		s.failed = append(s.failed, sm)
		return
	}
	s.samples = append(s.samples, sm)
}

// Snapshot returns per-operation aggregates keyed by operation name.
func (s *Stats) Snapshot() map[string]Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())

	byOp := make(map[string][]int64)
	for _, sm := range s.samples {
		byOp[sm.op] = append(byOp[sm.op], sm.durationMs)
	}
	out := make(map[string]Snapshot, len(byOp))
	for op, values := range byOp {
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
		var sum int64
		for _, v := range values {
			sum += v
		}
		out[op] = Snapshot{
			Count: len(values),
			MinMs: values[0],
			MaxMs: values[len(values)-1],
			AvgMs: float64(sum) / float64(len(values)),
			P50Ms: percentile(values, 50),
			P95Ms: percentile(values, 95),
		}
	}
	for _, sm := range s.failed {
		snap := out[sm.op]
		snap.Errors++
		out[sm.op] = snap
	}
	return out
}

// Ops lists operations with at least one sample, sorted.
func (s *Stats) Ops() []string {
	snap := s.Snapshot()
	ops := make([]string, 0, len(snap))
	for op := range snap {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	keep := func(list []sample) []sample {
		n := 0
		for _, sm := range list {
			if !sm.at.Before(cutoff) {
				list[n] = sm
				n++
			}
		}
		return list[:n]
	}
	s.samples = keep(s.samples)
	s.failed = keep(s.failed)
}

func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[upper])
	return lo + ((hi - lo) * weight)
}

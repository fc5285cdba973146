package coordinator

import (
	"sync/atomic"
	"time"
)

// counters 요청 처리 통계 (원자적 카운터)
type counters struct {
	requests         atomic.Int64
	cacheHits        atomic.Int64
	fetcherRuns      atomic.Int64
	waiterRuns       atomic.Int64
	throttleWaits    atomic.Int64
	upstreamCalls    atomic.Int64
	upstreamFailures atomic.Int64
	partialResponses atomic.Int64
	lastFetchAt      atomic.Int64 // unix ms, 0 = 없음
}

// Stats 통계 스냅샷
type Stats struct {
	Backend          string     `json:"backend"`
	Requests         int64      `json:"requests"`
	CacheHits        int64      `json:"cacheHits"`
	FetcherRuns      int64      `json:"fetcherRuns"`
	WaiterRuns       int64      `json:"waiterRuns"`
	ThrottleWaits    int64      `json:"throttleWaits"`
	UpstreamCalls    int64      `json:"upstreamCalls"`
	UpstreamFailures int64      `json:"upstreamFailures"`
	PartialResponses int64      `json:"partialResponses"`
	LastFetchAt      *time.Time `json:"lastFetchAt,omitempty"`
}

// Stats 현재 통계 반환
func (c *Coordinator) Stats() Stats {
	stats := Stats{
		Backend:          c.cache.Backend(),
		Requests:         c.counters.requests.Load(),
		CacheHits:        c.counters.cacheHits.Load(),
		FetcherRuns:      c.counters.fetcherRuns.Load(),
		WaiterRuns:       c.counters.waiterRuns.Load(),
		ThrottleWaits:    c.counters.throttleWaits.Load(),
		UpstreamCalls:    c.counters.upstreamCalls.Load(),
		UpstreamFailures: c.counters.upstreamFailures.Load(),
		PartialResponses: c.counters.partialResponses.Load(),
	}

	if ms := c.counters.lastFetchAt.Load(); ms > 0 {
		last := time.UnixMilli(ms)
		stats.LastFetchAt = &last
	}
	return stats
}

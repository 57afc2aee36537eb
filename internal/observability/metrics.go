package observability

import (
	"sort"
	"sync"
	"time"
)

type routeKey struct {
	path   string
	method string
	status int
}

type errorKey struct {
	path   string
	method string
	code   string
}

type routeTally struct {
	count   int64
	latency time.Duration
}

// Metrics keeps in-process counters for served requests and domain
// error codes, labeled by route.
type Metrics struct {
	mu       sync.Mutex
	started  time.Time
	requests map[routeKey]routeTally
	errors   map[errorKey]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:  time.Now(),
		requests: make(map[routeKey]routeTally),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest counts one served request and accumulates its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := routeKey{path: path, method: method, status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	tally := m.requests[key]
	tally.count++
	tally.latency += duration
	m.requests[key] = tally
}

// RecordError counts one request rejected with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := errorKey{path: path, method: method, code: code}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[key]++
}

// RouteStat is one request counter in a snapshot.
type RouteStat struct {
	Path         string `json:"path"`
	Method       string `json:"method"`
	Status       int    `json:"status"`
	Count        int64  `json:"count"`
	AvgLatencyMS int64  `json:"avg_latency_ms"`
}

// ErrorStat is one error counter in a snapshot.
type ErrorStat struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Code   string `json:"code"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	UptimeSeconds int64       `json:"uptime_seconds"`
	Requests      []RouteStat `json:"requests"`
	Errors        []ErrorStat `json:"errors"`
}

// Snapshot copies the counters, sorted by route for stable output.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      make([]RouteStat, 0, len(m.requests)),
		Errors:        make([]ErrorStat, 0, len(m.errors)),
	}
	for key, tally := range m.requests {
		snap.Requests = append(snap.Requests, RouteStat{
			Path:         key.path,
			Method:       key.method,
			Status:       key.status,
			Count:        tally.count,
			AvgLatencyMS: tally.latency.Milliseconds() / tally.count,
		})
	}
	for key, count := range m.errors {
		snap.Errors = append(snap.Errors, ErrorStat{
			Path:   key.path,
			Method: key.method,
			Code:   key.code,
			Count:  count,
		})
	}
	sort.Slice(snap.Requests, func(i, j int) bool {
		a, b := snap.Requests[i], snap.Requests[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Status < b.Status
	})
	sort.Slice(snap.Errors, func(i, j int) bool {
		a, b := snap.Errors[i], snap.Errors[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Code < b.Code
	})
	return snap
}

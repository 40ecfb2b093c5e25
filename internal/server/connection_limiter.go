package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/MYC-A/MoveUp/internal/metrics"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

const (
	rateEntryIdle   = 10 * time.Minute
	rateSweepPeriod = 5 * time.Minute
)

// LimitReason is the metric label for a refused websocket upgrade.
type LimitReason string

const (
	LimitReasonGlobal LimitReason = "global_limit"
	LimitReasonPerIP  LimitReason = "per_ip_limit"
	LimitReasonRate   LimitReason = "rate_limit"
)

// slotCounter caps concurrent sockets on this instance without locking.
type slotCounter struct {
	inUse atomic.Int64
	limit int64
}

func (s *slotCounter) take() bool {
	for {
		n := s.inUse.Load()
		if n >= s.limit {
			return false
		}
		if s.inUse.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *slotCounter) give() { s.inUse.Add(-1) }

func (s *slotCounter) utilization() float64 {
	if s.limit == 0 {
		return 0
	}
	return float64(s.inUse.Load()) / float64(s.limit) * 100
}

type dialBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ConnectionLimits gates websocket upgrades by dial rate, per-address
// concurrency and a process-wide cap, checked in that order.
type ConnectionLimits struct {
	clock clockwork.Clock
	slots slotCounter

	mu        sync.Mutex
	perAddr   map[string]int
	addrLimit int
	buckets   map[string]*dialBucket
	dialRate  rate.Limit
	dialBurst int
	nextSweep time.Time
}

func NewConnectionLimits(globalMax int64, perIPMax int, dialsPerSecond float64, burst int) *ConnectionLimits {
	return newConnectionLimits(clockwork.NewRealClock(), globalMax, perIPMax, dialsPerSecond, burst)
}

func newConnectionLimits(clock clockwork.Clock, globalMax int64, perIPMax int, dialsPerSecond float64, burst int) *ConnectionLimits {
	return &ConnectionLimits{
		clock:     clock,
		slots:     slotCounter{limit: globalMax},
		perAddr:   make(map[string]int),
		addrLimit: perIPMax,
		buckets:   make(map[string]*dialBucket),
		dialRate:  rate.Limit(dialsPerSecond),
		dialBurst: burst,
		nextSweep: clock.Now().Add(rateSweepPeriod),
	}
}

// Acquire reserves a slot for ip. On refusal nothing is held and the reason
// is counted.
func (l *ConnectionLimits) Acquire(ip string) (bool, LimitReason) {
	ok, reason := l.acquire(ip)
	if !ok {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
	}
	metrics.WebSocketConnectionCapacity.Set(l.slots.utilization())
	return ok, reason
}

func (l *ConnectionLimits) acquire(ip string) (bool, LimitReason) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.After(l.nextSweep) {
		for addr, b := range l.buckets {
			if now.Sub(b.lastSeen) > rateEntryIdle {
				delete(l.buckets, addr)
			}
		}
		l.nextSweep = now.Add(rateSweepPeriod)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &dialBucket{limiter: rate.NewLimiter(l.dialRate, l.dialBurst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	if !b.limiter.AllowN(now, 1) {
		return false, LimitReasonRate
	}

	if l.perAddr[ip] >= l.addrLimit {
		return false, LimitReasonPerIP
	}
	if !l.slots.take() {
		return false, LimitReasonGlobal
	}
	l.perAddr[ip]++
	return true, ""
}

// Release returns the slot taken by a successful Acquire.
func (l *ConnectionLimits) Release(ip string) {
	l.mu.Lock()
	if n := l.perAddr[ip]; n > 1 {
		l.perAddr[ip] = n - 1
	} else {
		delete(l.perAddr, ip)
	}
	l.mu.Unlock()

	l.slots.give()
	metrics.WebSocketConnectionCapacity.Set(l.slots.utilization())
}

// Active reports the number of held slots.
func (l *ConnectionLimits) Active() int64 {
	return l.slots.inUse.Load()
}

func (l *ConnectionLimits) activeFor(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perAddr[ip]
}

// Package balancer spreads streaming requests across storage replicas.
//
// Selection combines current in-flight load, a rolling window of observed
// response times, and time since last use. Replicas marked unhealthy are
// skipped until they recover; if every replica is unhealthy the first one
// is used as a fallback so requests still get served.
package balancer

import (
	"math/rand"
	"sync"
	"time"

	"filestream/internal/ports"
)

const (
	responseWindow = 10
	cooldown       = time.Second
)

type replicaState struct {
	replica       ports.Replica
	inflight      int
	healthy       bool
	lastUsed      time.Time
	responseTimes []time.Duration
}

func (s *replicaState) avgResponseTime() time.Duration {
	if len(s.responseTimes) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range s.responseTimes {
		total += d
	}
	return total / time.Duration(len(s.responseTimes))
}

// Balancer tracks replica health and load and picks one per request.
type Balancer struct {
	mu       sync.Mutex
	replicas []*replicaState
	now      func() time.Time
}

func New(replicas []ports.Replica) *Balancer {
	b := &Balancer{now: time.Now}
	for _, r := range replicas {
		b.replicas = append(b.replicas, &replicaState{replica: r, healthy: true})
	}
	return b
}

// Pick selects the replica for the next request and increments its
// in-flight count. Call Release when the request finishes.
func (b *Balancer) Pick() (int, ports.Replica) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	var available []int
	for i, s := range b.replicas {
		if s.healthy {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		// Everything is marked down; serve from the first replica
		// rather than failing outright.
		return b.take(0, now)
	}

	// An idle replica past its cooldown wins outright.
	var idle []int
	for _, i := range available {
		s := b.replicas[i]
		if s.inflight == 0 && now.Sub(s.lastUsed) > cooldown {
			idle = append(idle, i)
		}
	}
	if len(idle) > 0 {
		return b.take(idle[rand.Intn(len(idle))], now)
	}

	// Weighted choice: lighter load, faster responses, and longer idle
	// time all raise a replica's score.
	scores := make([]float64, len(available))
	var total float64
	for n, i := range available {
		s := b.replicas[i]

		load := float64(s.inflight)
		if load < 1 {
			load = 1
		}
		score := 0.6 / load

		if avg := s.avgResponseTime(); avg > 0 {
			secs := avg.Seconds()
			if secs < 0.1 {
				secs = 0.1
			}
			score += 0.2 / secs
		} else {
			score += 0.2
		}

		idleFor := now.Sub(s.lastUsed).Seconds() / cooldown.Seconds()
		if idleFor > 5 {
			idleFor = 5
		}
		score += 0.2 * idleFor

		if score < 0.1 {
			score = 0.1
		}
		scores[n] = score
		total += score
	}

	target := rand.Float64() * total
	for n, i := range available {
		target -= scores[n]
		if target <= 0 {
			return b.take(i, now)
		}
	}
	return b.take(available[len(available)-1], now)
}

func (b *Balancer) take(i int, now time.Time) (int, ports.Replica) {
	s := b.replicas[i]
	s.inflight++
	s.lastUsed = now
	return i, s.replica
}

// Release records the outcome of a request served by replica i.
func (b *Balancer) Release(i int, elapsed time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i < 0 || i >= len(b.replicas) {
		return
	}
	s := b.replicas[i]
	if s.inflight > 0 {
		s.inflight--
	}
	s.responseTimes = append(s.responseTimes, elapsed)
	if len(s.responseTimes) > responseWindow {
		s.responseTimes = s.responseTimes[len(s.responseTimes)-responseWindow:]
	}
}

// MarkUnhealthy takes replica i out of rotation.
func (b *Balancer) MarkUnhealthy(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= 0 && i < len(b.replicas) {
		b.replicas[i].healthy = false
	}
}

// MarkHealthy puts replica i back into rotation.
func (b *Balancer) MarkHealthy(i int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= 0 && i < len(b.replicas) {
		b.replicas[i].healthy = true
	}
}

// ReplicaStatus is one replica's entry in the /status payload.
type ReplicaStatus struct {
	Provider          string  `json:"provider"`
	Healthy           bool    `json:"healthy"`
	Inflight          int     `json:"inflight"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// Status reports the current state of every replica.
func (b *Balancer) Status() []ReplicaStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ReplicaStatus, 0, len(b.replicas))
	for _, s := range b.replicas {
		out = append(out, ReplicaStatus{
			Provider:          s.replica.Provider(),
			Healthy:           s.healthy,
			Inflight:          s.inflight,
			AvgResponseTimeMs: float64(s.avgResponseTime().Microseconds()) / 1000,
		})
	}
	return out
}

// Len returns the number of replicas in rotation.
func (b *Balancer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.replicas)
}

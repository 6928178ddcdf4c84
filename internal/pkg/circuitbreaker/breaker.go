// Package circuitbreaker stops calling a host that keeps failing at the
// transport level and probes it again after a cooldown.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned instead of calling a host whose circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Settings configure every breaker of a Group.
type Settings struct {
	// Threshold is the number of consecutive failures that opens the circuit.
	// Zero disables breaking.
	Threshold   int
	Cooldown    time.Duration
	HalfOpenMax int
}

// Breaker tracks consecutive failures of one host.
type Breaker struct {
	mu          sync.Mutex
	settings    Settings
	now         func() time.Time
	state       State
	failures    int
	lastFailure time.Time
	halfOpenCnt int
}

// NewBreaker creates a closed breaker.
func NewBreaker(s Settings) *Breaker {
	if s.HalfOpenMax <= 0 {
		s.HalfOpenMax = 1
	}
	return &Breaker{settings: s, now: time.Now}
}

// Allow reports whether a call may go through. An open breaker lets a
// limited number of probes through once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.settings.Threshold <= 0 {
		return true
	}
	switch b.state {
	case Open:
		if b.now().Sub(b.lastFailure) < b.settings.Cooldown {
			return false
		}
		b.state = HalfOpen
		b.halfOpenCnt = 1
		return true
	case HalfOpen:
		if b.halfOpenCnt >= b.settings.HalfOpenMax {
			return false
		}
		b.halfOpenCnt++
		return true
	default:
		return true
	}
}

// RecordSuccess closes the circuit.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.halfOpenCnt = 0
}

// RecordFailure counts a failure; a failed probe reopens immediately.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	switch b.state {
	case Closed:
		if b.settings.Threshold > 0 && b.failures >= b.settings.Threshold {
			b.state = Open
		}
	case HalfOpen:
		b.state = Open
	}
}

// State returns the current circuit breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Group hands out one breaker per key, typically a host name.
type Group struct {
	mu       sync.Mutex
	settings Settings
	now      func() time.Time
	breakers map[string]*Breaker
}

func NewGroup(s Settings) *Group {
	return &Group{settings: s, now: time.Now, breakers: map[string]*Breaker{}}
}

// For returns the breaker of key, creating it on first use.
func (g *Group) For(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.breakers[key]
	if !ok {
		b = NewBreaker(g.settings)
		b.now = g.now
		g.breakers[key] = b
	}
	return b
}

// States snapshots the state of every known key.
func (g *Group) States() map[string]State {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]State, len(g.breakers))
	for k, b := range g.breakers {
		out[k] = b.State()
	}
	return out
}

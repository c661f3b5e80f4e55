package routerclient

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

const (
	breakerWindow        = 16
	breakerTripThreshold = 8
	breakerBaseTimeout   = 30 * time.Second
	breakerMaxTimeout    = 300 * time.Second
)

// errBreakerOpen is returned by call when the breaker is short-circuiting.
var errBreakerOpen = errors.New("router: circuit breaker open")

// breaker wraps a gobreaker.CircuitBreaker with an escalating open
// duration: the first trip opens for 30s; each trip that follows while the
// breaker has not fully closed again doubles the open duration, up to a
// 300s ceiling. gobreaker's own Timeout is fixed at construction, so it
// cannot express a growing backoff by itself; instead, openUntil tracks
// our own deadline and call refuses to reach the underlying breaker at all
// until that deadline passes, regardless of what gobreaker's own (shorter,
// fixed) Timeout would otherwise allow.
type breaker struct {
	mu        sync.Mutex
	cb        *gobreaker.CircuitBreaker[struct{}]
	log       *logrus.Entry
	timeout   time.Duration // open duration applied on the next trip
	openUntil time.Time     // zero when not currently in an escalated open window

	openings int64
}

func newBreaker(log *logrus.Entry) *breaker {
	b := &breaker{timeout: breakerBaseTimeout, log: log}
	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "router-client",
		MaxRequests: 1,
		Interval:    0, // counts never reset on a timer; only on state transition
		Timeout:     breakerBaseTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				b.onTrip()
			}
			if to == gobreaker.StateClosed {
				b.onClose()
			}
		},
	})
	return b
}

// onTrip is invoked (via gobreaker's callback, which holds its own lock)
// whenever the breaker transitions into the open state. It records the
// deadline for this open window at the current (possibly already doubled)
// timeout, then doubles the timeout for the next trip.
func (b *breaker) onTrip() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openings++
	b.openUntil = time.Now().Add(b.timeout)
	if b.log != nil {
		b.log.WithFields(logrus.Fields{"openings": b.openings, "open_for": b.timeout}).Warn("router circuit breaker opened")
	}
	next := b.timeout * 2
	if next > breakerMaxTimeout {
		next = breakerMaxTimeout
	}
	b.timeout = next
}

// onClose resets the escalation once a half-open trial succeeds and the
// breaker fully closes: the next trip starts over at the base timeout.
func (b *breaker) onClose() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = breakerBaseTimeout
	b.openUntil = time.Time{}
}

// state reports the breaker's effective state: OPEN while our own
// escalated deadline has not yet passed, otherwise whatever gobreaker
// itself reports (which governs the half-open trial once that deadline
// has passed, since gobreaker's fixed Timeout is always <= ours).
func (b *breaker) state() gobreaker.State {
	b.mu.Lock()
	until := b.openUntil
	b.mu.Unlock()
	if !until.IsZero() && time.Now().Before(until) {
		return gobreaker.StateOpen
	}
	return b.cb.State()
}

// Openings returns the number of times the breaker has tripped open.
func (b *breaker) Openings() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.openings
}

// call executes fn through the breaker, translating gobreaker's open/
// too-many-requests short-circuit (and our own escalated open window)
// into a single caller-visible "unavailable" error.
func (b *breaker) call(fn func() error) error {
	if b.state() == gobreaker.StateOpen {
		return errBreakerOpen
	}
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
